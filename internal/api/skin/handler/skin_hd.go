package skinHandler

import (
	"errors"
	"time"

	"DermaScan/internal/api/skin"
	contextPkg "DermaScan/pkg/context"
	"DermaScan/pkg/handlerUtil"
	"DermaScan/pkg/log"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

const defaultRequestTimeout = 60 * time.Second

func (h *SkinHandler) Upload(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)

	timeout := h.requestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), timeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	req := skin.AnalyzeRequest{
		ImageURL: ctx.FormValue("imageURL"),
		Age:      ctx.FormValue("age"),
		Gender:   ctx.FormValue("gender"),
	}

	if file, err := ctx.FormFile("image"); err == nil {
		req.Image = file
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"file_name":  file.Filename,
			"file_size":  file.Size,
		}).Debug("Processing file upload")
	} else if req.ImageURL != "" {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"image_url":  req.ImageURL,
		}).Debug("Processing image URL")
	}

	result, err := h.skinService.Analyze(c, req)
	if err != nil {
		// a deadline hit before detections exist; recommendation timeouts are
		// already folded into the payload by the service
		if errors.Is(c.Err(), context.DeadlineExceeded) {
			h.metrics.ObserveRequest("TIMEOUT")
			h.log.WithFields(log.Fields{
				"request_id": requestID,
				"path":       ctx.Path(),
				"error":      err.Error(),
			}).Warn("Skin analysis timed out")
			return errHandler.HandleRequestTimeout(ctx)
		}
		h.metrics.ObserveRequest(handlerUtil.Code(err))
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "analyze_skin")
	}

	h.metrics.ObserveRequest("OK")
	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
		"detections": len(result.Results),
		"problems":   result.PredictedProblems,
	}).Info("Skin analysis successful")
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, result)
}

func (h *SkinHandler) Classes(ctx *fiber.Ctx) error {
	return ctx.JSON(skin.ClassesResponse{
		Classes: h.skinService.Classes(),
	})
}

func (h *SkinHandler) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(h.skinService.Health())
}
