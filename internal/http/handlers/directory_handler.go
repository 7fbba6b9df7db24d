package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"twende/internal/http/middleware"
	"twende/internal/modules/directory"
	"twende/internal/types"
)

type DirectoryHandler struct {
	directory *directory.Service
}

func NewDirectoryHandler(svc *directory.Service) *DirectoryHandler {
	return &DirectoryHandler{directory: svc}
}

type setStatusReq struct {
	Status string `json:"status"`
}

// SetStatus is the driver's own online/offline toggle.
func (h *DirectoryHandler) SetStatus(c *gin.Context) {
	var req setStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, err := h.directory.SetStatus(c.Request.Context(),
		types.ID(middleware.CallerUID(c)), directory.DriverStatus(req.Status))
	if err != nil {
		writeDirectoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type locationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (h *DirectoryHandler) UpdateLocation(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.directory.UpdateLocation(c.Request.Context(),
		types.ID(middleware.CallerUID(c)), types.Point{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		writeDirectoryError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DirectoryHandler) GetDriver(c *gin.Context) {
	d, err := h.directory.GetDriver(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDirectoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type addVehicleReq struct {
	Name         string `json:"name"`
	PlateNumber  string `json:"plate_number"`
	Transmission string `json:"transmission"`
	Category     string `json:"category"`
}

func (h *DirectoryHandler) AddVehicle(c *gin.Context) {
	var req addVehicleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	v, err := h.directory.AddVehicle(c.Request.Context(), directory.AddVehicleCommand{
		CustomerID:   types.ID(middleware.CallerUID(c)),
		Name:         req.Name,
		PlateNumber:  req.PlateNumber,
		Transmission: directory.Transmission(req.Transmission),
		Category:     directory.LicenseCategory(req.Category),
	})
	if err != nil {
		writeDirectoryError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *DirectoryHandler) ListVehicles(c *gin.Context) {
	vehicles, err := h.directory.ListVehicles(c.Request.Context(), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeDirectoryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles})
}
