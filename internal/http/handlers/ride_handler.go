package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"twende/internal/http/middleware"
	"twende/internal/modules/ride"
	"twende/internal/types"
)

type RideHandler struct {
	rides *ride.Service
}

func NewRideHandler(svc *ride.Service) *RideHandler {
	return &RideHandler{rides: svc}
}

type createRideReq struct {
	VehicleID      string  `json:"vehicle_id"`
	PickupLat      float64 `json:"pickup_lat"`
	PickupLng      float64 `json:"pickup_lng"`
	DropoffLat     float64 `json:"dropoff_lat"`
	DropoffLng     float64 `json:"dropoff_lng"`
	PickupAddress  string  `json:"pickup_address"`
	DropoffAddress string  `json:"dropoff_address"`
	Mode           string  `json:"mode"`
	DriverID       string  `json:"driver_id,omitempty"`
}

func (h *RideHandler) Create(c *gin.Context) {
	var req createRideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Mode == "" {
		req.Mode = string(ride.ModeAuto)
	}
	r, err := h.rides.Create(c.Request.Context(), ride.CreateCommand{
		CustomerID:     types.ID(middleware.CallerUID(c)),
		VehicleID:      types.ID(req.VehicleID),
		Pickup:         types.Point{Lat: req.PickupLat, Lng: req.PickupLng},
		Dropoff:        types.Point{Lat: req.DropoffLat, Lng: req.DropoffLng},
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
		Mode:           ride.AssignMode(req.Mode),
		DriverID:       types.ID(req.DriverID),
	})
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

type estimateReq struct {
	PickupLat  float64 `json:"pickup_lat"`
	PickupLng  float64 `json:"pickup_lng"`
	DropoffLat float64 `json:"dropoff_lat"`
	DropoffLng float64 `json:"dropoff_lng"`
}

func (h *RideHandler) Estimate(c *gin.Context) {
	var req estimateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	est, err := h.rides.Estimate(c.Request.Context(),
		types.Point{Lat: req.PickupLat, Lng: req.PickupLng},
		types.Point{Lat: req.DropoffLat, Lng: req.DropoffLng},
	)
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, est)
}

func (h *RideHandler) Get(c *gin.Context) {
	r, err := h.rides.Get(c.Request.Context(),
		types.ID(middleware.CallerUID(c)), types.ID(c.Param("id")))
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *RideHandler) History(c *gin.Context) {
	f := ride.HistoryFilter{Status: ride.Status(c.Query("status"))}
	actor := types.ID(middleware.CallerUID(c))
	ctx := c.Request.Context()

	var (
		rides []*ride.Ride
		err   error
	)
	if middleware.CallerRole(c) == "driver" {
		rides, err = h.rides.HistoryForDriver(ctx, actor, f)
	} else {
		rides, err = h.rides.HistoryForCustomer(ctx, actor, f)
	}
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rides": rides})
}

func (h *RideHandler) QualifiedDrivers(c *gin.Context) {
	drivers, err := h.rides.QualifiedDrivers(c.Request.Context(),
		types.ID(middleware.CallerUID(c)), types.ID(c.Param("id")))
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drivers": drivers})
}

func (h *RideHandler) OpenRides(c *gin.Context) {
	rides, err := h.rides.OpenRides(c.Request.Context(), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rides": rides})
}

func (h *RideHandler) Accept(c *gin.Context) {
	r, err := h.rides.Accept(c.Request.Context(),
		types.ID(middleware.CallerUID(c)), types.ID(c.Param("id")))
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *RideHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	r, err := h.rides.UpdateStatus(c.Request.Context(),
		types.ID(middleware.CallerUID(c)), types.ID(c.Param("id")), ride.Status(req.Status))
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *RideHandler) Cancel(c *gin.Context) {
	var req cancelReq
	_ = c.ShouldBindJSON(&req) // reason is optional
	r, err := h.rides.Cancel(c.Request.Context(),
		types.ID(middleware.CallerUID(c)), types.ID(c.Param("id")), req.Reason)
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

type createReviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *RideHandler) CreateReview(c *gin.Context) {
	var req createReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	rv, err := h.rides.CreateReview(c.Request.Context(),
		types.ID(middleware.CallerUID(c)), types.ID(c.Param("id")), req.Rating, req.Comment)
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rv)
}

func (h *RideHandler) ReviewsReceived(c *gin.Context) {
	reviews, err := h.rides.ReviewsReceived(c.Request.Context(), types.ID(middleware.CallerUID(c)))
	if err != nil {
		writeRideError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
