package payments

import (
	"io"
	"net/http"

	"cineplex/internal/bookings"
	"cineplex/internal/shared/middleware"
	"cineplex/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxCallbackBody = 64 << 10

type Controller struct {
	gateway Gateway
}

func NewController(gateway Gateway) *Controller {
	return &Controller{gateway: gateway}
}

// CreatePayment handles POST /api/v1/payments/:provider/create
func (ctrl *Controller) CreatePayment(c *gin.Context) {
	principal, err := middleware.CurrentUser(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	who := bookings.Requester{UserID: principal.UserID, Admin: principal.IsAdmin()}
	resp, err := ctrl.gateway.CreatePayment(c.Request.Context(), ProviderName(c.Param("provider")), uuid.MustParse(req.BookingID), who)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Payment created successfully", resp, nil)
}

// Callback handles POST /api/v1/payments/:provider/callback. The response is
// in the provider's own format, not the API envelope.
func (ctrl *Controller) Callback(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	ack, err := ctrl.gateway.HandleCallback(c.Request.Context(), ProviderName(c.Param("provider")), body, c.ContentType())
	if err != nil && ack.Status == 0 {
		response.RespondError(c, err)
		return
	}

	if ack.Body == nil {
		c.Status(ack.Status)
		return
	}
	c.JSON(ack.Status, ack.Body)
}
