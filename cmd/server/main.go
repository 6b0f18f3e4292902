package main

import (
	"log"

	_ "planboard/docs"
	"planboard/internal/config"
	"planboard/internal/server"
)

// @title           Planboard API
// @version         1.0
// @description     API for managing project schedules: WBS tasks, cost roll-ups, dependencies and bulk import.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()

	s, err := server.Init(cfg)
	if err != nil {
		log.Fatalf("Server initialization failed: %v", err)
	}

	s.Run()
}
