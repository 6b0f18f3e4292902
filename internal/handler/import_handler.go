package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"planboard/internal/model"
	"planboard/internal/repository"
	"planboard/internal/service"
)

type ImportHandler struct {
	projectRepo *repository.ProjectRepository
	memberRepo  *repository.MemberRepository
	importer    *service.Importer
}

func NewImportHandler(projectRepo *repository.ProjectRepository, memberRepo *repository.MemberRepository, importer *service.Importer) *ImportHandler {
	return &ImportHandler{
		projectRepo: projectRepo,
		memberRepo:  memberRepo,
		importer:    importer,
	}
}

// Import replaces a project's schedule from an uploaded CSV or XLSX
// file. Rows that fail to parse or insert are skipped and reported; the
// import itself proceeds
// @Summary      Import a project schedule
// @Tags         Import
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        file formData file true "Schedule file (.csv or .xlsx)"
// @Success      200 {object} service.ImportReport
// @Failure      400 {object} map[string]string
// @Router       /projects/{id}/import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID format"})
		return
	}

	project, err := h.projectRepo.GetByID(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	hasAccess, err := h.memberRepo.CheckAccess(c.Request.Context(), projectID, userID, model.RoleEditor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return
	}
	if !hasAccess {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to import into this project"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot open uploaded file"})
		return
	}
	defer file.Close()

	var report *service.ImportReport
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".csv":
		report, err = h.importer.ImportCSV(c.Request.Context(), projectID, file)
	case ".xlsx":
		report, err = h.importer.ImportXLSX(c.Request.Context(), projectID, file)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file type, expected .csv or .xlsx"})
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
