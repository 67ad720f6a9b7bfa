package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/anushreddydasari/cpqagri/internal/http/middleware"
	"github.com/anushreddydasari/cpqagri/internal/model"
	"github.com/anushreddydasari/cpqagri/internal/service"
)

type Handler struct {
	catalog *service.CatalogService
	quotes  *service.QuoteService
	signing *service.SigningService
	log     zerolog.Logger
}

func NewHandler(catalog *service.CatalogService, quotes *service.QuoteService, signing *service.SigningService, log zerolog.Logger) *Handler {
	return &Handler{catalog: catalog, quotes: quotes, signing: signing, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/health", h.health)

	// Signing routes are public: the token is the credential.
	router.GET("/sign/:token", h.signForm)
	router.POST("/sign/:token", h.signWithToken)
	router.POST("/sign", h.signDirect)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.POST("/farmers", h.createFarmer)
	protected.GET("/farmers", h.listFarmers)
	protected.DELETE("/farmers/:name", h.deleteFarmer)
	protected.POST("/farmers/:name/crops", h.addCrop)
	protected.GET("/farmers/:name/crops", h.listCrops)
	protected.DELETE("/farmers/:name/crops/:crop", h.deleteCrop)
	protected.POST("/quotes", h.createQuote)
	protected.GET("/quotes/export", h.exportQuotes)
	protected.GET("/quotes/:number", h.getQuote)
	protected.GET("/quotes/:number/document", h.quoteDocument)
	protected.GET("/quotes/:number/lease", h.quoteLease)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type createFarmerRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) createFarmer(c *gin.Context) {
	var req createFarmerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	farmer, err := h.catalog.AddFarmer(c.Request.Context(), req.Name)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, farmer)
}

func (h *Handler) listFarmers(c *gin.Context) {
	farmers, err := h.catalog.ListFarmers(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"farmers": farmers})
}

func (h *Handler) deleteFarmer(c *gin.Context) {
	cascade := c.Query("cascade") == "true"
	result, err := h.catalog.DeleteFarmer(c.Request.Context(), c.Param("name"), cascade)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.auditDelete(c, "farmer", c.Param("name"), cascade)
	c.JSON(http.StatusOK, gin.H{
		"deleted":        c.Param("name"),
		"crops_deleted":  result.CropsDeleted,
		"quotes_deleted": result.QuotesDeleted,
	})
}

type addCropRequest struct {
	Name      string  `json:"name" binding:"required"`
	BasePrice float64 `json:"base_price"`
	Discounts string  `json:"discounts"`
}

func (h *Handler) addCrop(c *gin.Context) {
	var req addCropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.catalog.AddCrop(c.Request.Context(), service.AddCropInput{
		FarmerName: c.Param("name"),
		CropName:   req.Name,
		BasePrice:  req.BasePrice,
		TierSpec:   req.Discounts,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response := gin.H{"crop": result.Crop}
	if len(result.DroppedTiers) > 0 {
		response["dropped_tiers"] = result.DroppedTiers
	}
	c.JSON(http.StatusCreated, response)
}

func (h *Handler) listCrops(c *gin.Context) {
	crops, err := h.catalog.ListCrops(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"crops": crops})
}

func (h *Handler) deleteCrop(c *gin.Context) {
	cascade := c.Query("cascade") == "true"
	quotesDeleted, err := h.catalog.DeleteCrop(c.Request.Context(), c.Param("name"), c.Param("crop"), cascade)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.auditDelete(c, "crop", c.Param("crop"), cascade)
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("crop"), "quotes_deleted": quotesDeleted})
}

type createQuoteRequest struct {
	Farmer      string `json:"farmer" binding:"required"`
	Crop        string `json:"crop" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required"`
	SellerEmail string `json:"seller_email"`
	BuyerEmail  string `json:"buyer_email"`
}

func (h *Handler) createQuote(c *gin.Context) {
	var req createQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.quotes.CreateQuote(c.Request.Context(), service.CreateQuoteInput{
		FarmerName:  req.Farmer,
		CropName:    req.Crop,
		Quantity:    req.Quantity,
		SellerEmail: req.SellerEmail,
		BuyerEmail:  req.BuyerEmail,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"quote_number":     result.Quote.QuoteNumber,
		"status":           result.Quote.Status,
		"subtotal":         result.Breakdown.Subtotal,
		"discount_percent": result.Breakdown.DiscountPercent,
		"discount_amount":  result.Breakdown.DiscountAmount,
		"final_price":      result.Breakdown.FinalPrice,
		"signing_links":    result.SigningLinks,
	})
}

func (h *Handler) getQuote(c *gin.Context) {
	details, err := h.quotes.GetQuote(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *Handler) quoteDocument(c *gin.Context) {
	file, err := h.quotes.QuoteDocument(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	servePDF(c, file.FileName, file.Content)
}

func (h *Handler) quoteLease(c *gin.Context) {
	file, err := h.quotes.LeaseAgreement(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	servePDF(c, file.FileName, file.Content)
}

func (h *Handler) exportQuotes(c *gin.Context) {
	file, err := h.quotes.ExportRegister(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	const mime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	c.Header("Content-Disposition", "attachment; filename=\""+file.FileName+"\"")
	c.Data(http.StatusOK, mime, file.Content)
}

func (h *Handler) signForm(c *gin.Context) {
	resolved, err := h.signing.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	if resolved.Signed {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(alreadySignedPage(resolved)))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(signFormPage(c.Param("token"), resolved)))
}

func (h *Handler) signWithToken(c *gin.Context) {
	image, ok := h.readSignatureImage(c)
	if !ok {
		return
	}

	result, err := h.signing.SignWithToken(c.Request.Context(), c.Param("token"), image)
	if err != nil {
		h.handleError(c, err)
		return
	}
	servePDF(c, result.FileName, result.Content)
}

func (h *Handler) signDirect(c *gin.Context) {
	image, ok := h.readSignatureImage(c)
	if !ok {
		return
	}

	page, err1 := strconv.Atoi(c.DefaultPostForm("page", "0"))
	x, err2 := strconv.ParseFloat(c.DefaultPostForm("x", "50"), 64)
	y, err3 := strconv.ParseFloat(c.DefaultPostForm("y", "50"), 64)
	w, err4 := strconv.ParseFloat(c.DefaultPostForm("w", "150"), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid placement"})
		return
	}

	result, err := h.signing.SignDirect(c.Request.Context(), service.SignDirectInput{
		QuoteRef: c.PostForm("quote_id"),
		Role:     model.SignerRole(c.PostForm("role")),
		Image:    image,
		Page:     page,
		X:        x,
		Y:        y,
		Width:    w,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	servePDF(c, result.FileName, result.Content)
}

func (h *Handler) readSignatureImage(c *gin.Context) ([]byte, bool) {
	header, err := c.FormFile("signature")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing signature image"})
		return nil, false
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable signature image"})
		return nil, false
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable signature image"})
		return nil, false
	}
	return image, true
}

// auditDelete records who performed a destructive admin operation.
func (h *Handler) auditDelete(c *gin.Context, kind, name string, cascade bool) {
	subject := "unknown"
	if principal, ok := middleware.MustPrincipal(c); ok {
		subject = principal.Subject
	}
	h.log.Info().
		Str("subject", subject).
		Str(kind, name).
		Bool("cascade", cascade).
		Msg(kind + " deleted")
}

func servePDF(c *gin.Context, name string, content []byte) {
	c.Header("Content-Disposition", "attachment; filename=\""+name+"\"")
	c.Data(http.StatusOK, "application/pdf", content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrStorage):
		h.log.Error().Err(err).Msg("storage failure")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage temporarily unavailable"})
	case errors.Is(err, service.ErrRender):
		h.log.Error().Err(err).Msg("render failure")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "document rendering failed"})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func alreadySignedPage(resolved *service.ResolvedToken) string {
	signedAt := ""
	if resolved.SignedAt != nil {
		signedAt = resolved.SignedAt.Format("2006-01-02 15:04 UTC")
	}
	return fmt.Sprintf(`<!doctype html>
<html><head><meta charset="utf-8"><title>Quote %s</title></head>
<body style="font-family: Arial; max-width: 600px; margin: auto;">
<h2>Already signed</h2>
<p>The %s signature for quote %s was recorded%s.</p>
<p>Quote status: %s</p>
</body></html>`,
		resolved.Quote.QuoteNumber,
		resolved.Role,
		resolved.Quote.QuoteNumber,
		formatSignedAt(signedAt),
		resolved.Quote.Status,
	)
}

func formatSignedAt(signedAt string) string {
	if signedAt == "" {
		return ""
	}
	return " on " + signedAt
}

func signFormPage(token string, resolved *service.ResolvedToken) string {
	return fmt.Sprintf(`<!doctype html>
<html><head><meta charset="utf-8"><title>Sign Quote %s</title></head>
<body style="font-family: Arial; max-width: 600px; margin: auto;">
<h2>Sign quote %s as %s</h2>
<form action="/sign/%s" method="post" enctype="multipart/form-data">
<label>Signature image (PNG/JPG)</label><br/>
<input type="file" name="signature" accept="image/*" /><br/><br/>
<button type="submit">Submit signature</button>
</form>
</body></html>`,
		resolved.Quote.QuoteNumber,
		resolved.Quote.QuoteNumber,
		resolved.Role,
		strings.ReplaceAll(token, `"`, ""),
	)
}
