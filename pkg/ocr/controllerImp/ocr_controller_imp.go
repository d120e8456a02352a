package controllerImp

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"cuaderno/pkg/apperr"
	"cuaderno/pkg/middleware"
	"cuaderno/pkg/ocr/controller"
	"cuaderno/pkg/ocr/service"
	"cuaderno/pkg/response"
)

const maxImageBytes = 10 << 20

type ocrCtrl struct{ s service.OCRService }

func New(s service.OCRService) controller.OCRController { return &ocrCtrl{s} }

// Label accepts a multipart "image" field or a JSON {"text": "..."} body.
func (h *ocrCtrl) Label(c echo.Context) error {
	var in service.ScanInput
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		fh, err := c.FormFile("image")
		if err != nil {
			in.Text = c.FormValue("text")
			if in.Text == "" {
				return apperr.Validation("falta el campo image").WithDetail("image", "obligatoria")
			}
		} else {
			if fh.Size > maxImageBytes {
				return apperr.Validation("la imagen supera 10 MB").WithDetail("image", "máximo 10 MB")
			}
			f, err := fh.Open()
			if err != nil {
				return apperr.BadRequest("no se pudo leer la imagen")
			}
			defer f.Close()
			in.Image, err = io.ReadAll(io.LimitReader(f, maxImageBytes+1))
			if err != nil {
				return apperr.BadRequest("no se pudo leer la imagen")
			}
			if !acceptedImage(in.Image) {
				return apperr.Validation("formato de imagen no admitido").WithDetail("image", "jpeg, png, gif, webp, pdf o texto")
			}
			in.Filename = fh.Filename
		}
	} else {
		var body struct {
			Text string `json:"text"`
		}
		if err := c.Bind(&body); err != nil {
			return apperr.BadRequest("JSON no válido")
		}
		in.Text = body.Text
	}
	res, err := h.s.Scan(c.Request().Context(), middleware.UserID(c), in)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusCreated, res)
}

func acceptedImage(b []byte) bool {
	ct := http.DetectContentType(b)
	return strings.HasPrefix(ct, "image/") || ct == "application/pdf" || strings.HasPrefix(ct, "text/plain")
}

func (h *ocrCtrl) Scans(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	out, err := h.s.ListScans(c.Request().Context(), middleware.UserID(c), limit)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, out)
}
