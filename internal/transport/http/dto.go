package http

import (
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// Явные конвертеры domain -> DTO: поля перечислены руками, чтобы
// изменение доменной модели было видно на ревью, а не маскировалось
// рефлексией.

// CartItemView — позиция корзины в ответе API.
type CartItemView struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Qty         int32     `json:"qty"`
	PriceMinor  int64     `json:"price_minor"`
	DiscountPct float64   `json:"discount_pct"`
	AddedAt     time.Time `json:"added_at"`
}

// CartView — корзина в ответе API.
type CartView struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Email      string         `json:"email"`
	Items      []CartItemView `json:"items"`
	TotalMinor int64          `json:"total_minor"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// PaymentView — платёж в ответе API.
type PaymentView struct {
	ID               string `json:"id"`
	Method           string `json:"method"`
	GatewayName      string `json:"gateway_name,omitempty"`
	GatewayPaymentID string `json:"gateway_payment_id,omitempty"`
	GatewayStatus    string `json:"gateway_status,omitempty"`
	GatewayMessage   string `json:"gateway_message,omitempty"`
}

// OrderItemView — позиция заказа в ответе API.
type OrderItemView struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Qty         int32   `json:"qty"`
	DiscountPct float64 `json:"discount_pct"`
	PriceMinor  int64   `json:"price_minor"`
}

// OrderView — заказ в ответе API.
type OrderView struct {
	ID         string          `json:"id"`
	Email      string          `json:"email"`
	Status     string          `json:"status"`
	TotalMinor int64           `json:"total_minor"`
	AddressID  string          `json:"address_id"`
	Payment    PaymentView     `json:"payment"`
	Items      []OrderItemView `json:"items"`
	PlacedAt   time.Time       `json:"placed_at"`
}

// updateQuantityRequest — тело PATCH-запроса изменения количества.
type updateQuantityRequest struct {
	Delta int32 `json:"delta"`
}

// placeOrderRequest — тело запроса оформления заказа.
type placeOrderRequest struct {
	AddressID        string `json:"address_id"`
	PaymentMethod    string `json:"payment_method"`
	GatewayName      string `json:"gateway_name"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	GatewayStatus    string `json:"gateway_status"`
	GatewayMessage   string `json:"gateway_message"`
}

// messageResponse — ответ с единственным подтверждением.
type messageResponse struct {
	Message string `json:"message"`
}

// errorResponse — единый формат ошибки API.
type errorResponse struct {
	Error string `json:"error"`
}

func toCartView(cart domain.Cart) CartView {
	items := make([]CartItemView, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, CartItemView{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Qty:         it.Qty,
			PriceMinor:  it.PriceMinor,
			DiscountPct: it.DiscountPct,
			AddedAt:     it.AddedAt,
		})
	}
	return CartView{
		ID:         cart.ID,
		UserID:     cart.UserID,
		Email:      cart.Email,
		Items:      items,
		TotalMinor: cart.TotalMinor,
		UpdatedAt:  cart.UpdatedAt,
	}
}

func toOrderView(order domain.Order) OrderView {
	items := make([]OrderItemView, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, OrderItemView{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Qty:         it.Qty,
			DiscountPct: it.DiscountPct,
			PriceMinor:  it.PriceMinor,
		})
	}
	return OrderView{
		ID:         order.ID,
		Email:      order.Email,
		Status:     order.Status,
		TotalMinor: order.TotalMinor,
		AddressID:  order.AddressID,
		Payment: PaymentView{
			ID:               order.Payment.ID,
			Method:           order.Payment.Method,
			GatewayName:      order.Payment.GatewayName,
			GatewayPaymentID: order.Payment.GatewayPaymentID,
			GatewayStatus:    order.Payment.GatewayStatus,
			GatewayMessage:   order.Payment.GatewayMessage,
		},
		Items:    items,
		PlacedAt: order.PlacedAt,
	}
}
