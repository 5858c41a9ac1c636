package api

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/acevedolabs/tienda-storefront/internal/cart"
	"github.com/acevedolabs/tienda-storefront/internal/promotion"
	"github.com/acevedolabs/tienda-storefront/pkg/enums"
	pkgerrors "github.com/acevedolabs/tienda-storefront/pkg/errors"
)

// envelope is the uniform response wrapper the tienda backend returns.
type envelope struct {
	Exito   bool            `json:"exito"`
	Mensaje string          `json:"mensaje"`
	Datos   json.RawMessage `json:"datos"`
	Errores []string        `json:"errores"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// decodeDatos is the single normalization boundary: payloads are decoded
// (encoding/json matches the backend's casing drift case-insensitively),
// then schema-validated before anything maps them to domain types.
func decodeDatos(datos json.RawMessage, dest any) error {
	if len(datos) == 0 || string(datos) == "null" {
		return pkgerrors.New(pkgerrors.CodeDecode, "respuesta sin datos")
	}
	if err := json.Unmarshal(datos, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDecode, err, "decodificando datos")
	}
	return validateDecoded(dest)
}

// validateDecoded handles both struct payloads and list payloads; the
// validator itself only accepts structs.
func validateDecoded(dest any) error {
	value := reflect.Indirect(reflect.ValueOf(dest))
	switch value.Kind() {
	case reflect.Slice:
		for i := 0; i < value.Len(); i++ {
			if err := validate.Struct(value.Index(i).Interface()); err != nil {
				return formatValidationErrors(err)
			}
		}
		return nil
	case reflect.Struct:
		if err := validate.Struct(dest); err != nil {
			return formatValidationErrors(err)
		}
		return nil
	default:
		return nil
	}
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Namespace()] = fieldErr.Tag()
		}
		return pkgerrors.New(pkgerrors.CodeDecode, "datos no cumplen el esquema").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDecode, err, "datos no cumplen el esquema")
}

type carritoDTO struct {
	ID            string           `json:"id" validate:"required"`
	Items         []itemCarritoDTO `json:"items" validate:"dive"`
	SubTotal      decimal.Decimal  `json:"subTotal"`
	Descuento     decimal.Decimal  `json:"descuento"`
	Total         decimal.Decimal  `json:"total"`
	CantidadTotal int              `json:"cantidadTotal"`
	Cupon         *cuponDTO        `json:"cupon"`
}

type itemCarritoDTO struct {
	ID                 string          `json:"id" validate:"required"`
	VarianteProductoID string          `json:"varianteProductoId" validate:"required"`
	NombreProducto     string          `json:"nombreProducto"`
	Cantidad           int             `json:"cantidad" validate:"min=1"`
	PrecioUnitario     decimal.Decimal `json:"precioUnitario"`
	SubTotal           decimal.Decimal `json:"subTotal"`
	StockDisponible    int             `json:"stockDisponible"`
}

type cuponDTO struct {
	Codigo         string          `json:"codigo" validate:"required"`
	Tipo           string          `json:"tipo" validate:"required"`
	ValorDescuento decimal.Decimal `json:"valorDescuento"`
	MontoMinimo    decimal.Decimal `json:"montoMinimo"`
	Descripcion    string          `json:"descripcion"`
}

type promocionDTO struct {
	ID              string           `json:"id" validate:"required"`
	Nombre          string           `json:"nombre"`
	TipoDescuento   string           `json:"tipoDescuento" validate:"required"`
	AplicaA         string           `json:"aplicaA" validate:"required"`
	ValorDescuento  decimal.Decimal  `json:"valorDescuento"`
	DescuentoMaximo *decimal.Decimal `json:"descuentoMaximo"`
	FechaFin        time.Time        `json:"fechaFin"`
}

func (dto carritoDTO) toCart() (*cart.Cart, error) {
	result := &cart.Cart{
		ID:             dto.ID,
		Items:          make([]cart.Item, 0, len(dto.Items)),
		SubTotal:       dto.SubTotal,
		Discount:       dto.Descuento,
		Total:          dto.Total,
		TotalItemCount: dto.CantidadTotal,
	}
	for _, item := range dto.Items {
		result.Items = append(result.Items, cart.Item{
			ID:             item.ID,
			VariantID:      item.VarianteProductoID,
			ProductName:    item.NombreProducto,
			Quantity:       item.Cantidad,
			UnitPrice:      item.PrecioUnitario,
			SubTotal:       item.SubTotal,
			AvailableStock: item.StockDisponible,
		})
	}
	if dto.Cupon != nil {
		couponType, err := enums.ParseCouponType(dto.Cupon.Tipo)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDecode, err, "tipo de cupon desconocido")
		}
		result.Coupon = &cart.Coupon{
			Code:          dto.Cupon.Codigo,
			Type:          couponType,
			Value:         dto.Cupon.ValorDescuento,
			MinimumAmount: dto.Cupon.MontoMinimo,
			Description:   dto.Cupon.Descripcion,
		}
	}
	return result, nil
}

func (dto promocionDTO) toPromotion() (promotion.Promotion, error) {
	discountType, err := enums.ParseDiscountType(dto.TipoDescuento)
	if err != nil {
		return promotion.Promotion{}, pkgerrors.Wrap(pkgerrors.CodeDecode, err, "tipo de descuento desconocido")
	}
	appliesTo, err := enums.ParseAppliesTo(dto.AplicaA)
	if err != nil {
		return promotion.Promotion{}, pkgerrors.Wrap(pkgerrors.CodeDecode, err, "alcance de promocion desconocido")
	}
	return promotion.Promotion{
		ID:          dto.ID,
		Name:        dto.Nombre,
		Type:        discountType,
		AppliesTo:   appliesTo,
		Value:       dto.ValorDescuento,
		MaxDiscount: dto.DescuentoMaximo,
		EndsAt:      dto.FechaFin,
	}, nil
}

func mapPromotions(dtos []promocionDTO) ([]promotion.Promotion, error) {
	promos := make([]promotion.Promotion, 0, len(dtos))
	for _, dto := range dtos {
		promo, err := dto.toPromotion()
		if err != nil {
			return nil, err
		}
		promos = append(promos, promo)
	}
	return promos, nil
}

// Request bodies carry the backend's documented PascalCase field names.
type addItemRequest struct {
	VarianteProductoID string `json:"VarianteProductoId"`
	Cantidad           int    `json:"Cantidad"`
}

type updateItemRequest struct {
	Cantidad int `json:"Cantidad"`
}

type applyCouponRequest struct {
	Codigo string `json:"Codigo"`
}

type applicablePromotionsRequest struct {
	ProductoIds  []string `json:"ProductoIds,omitempty"`
	CategoriaIds []string `json:"CategoriaIds,omitempty"`
	// MontoTotal is a JSON number on the wire; decimal.Decimal would
	// marshal as a quoted string.
	MontoTotal json.Number `json:"MontoTotal,omitempty"`
	TiendaID   string      `json:"TiendaId,omitempty"`
}
