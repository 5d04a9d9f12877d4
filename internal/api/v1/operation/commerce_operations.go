package operation

import "coursemart/internal/api/v1/dto"

// Cart Operations

type GetCartInput struct {
	Currency string `query:"currency" doc:"Currency for the converted subtotal; defaults to the user's preferred currency"`
}

type GetCartOutput struct {
	Body dto.CartResponseDTO `json:"body"`
}

type AddCartItemInput struct {
	Body dto.CartItemRequestDTO `json:"body"`
}

type AddCartItemOutput struct {
	// 204 No Content
}

type RemoveCartItemInput struct {
	CourseID string `path:"courseId" doc:"Course ID"`
}

type RemoveCartItemOutput struct {
	// 204 No Content
}

type ClearCartInput struct{}

type ClearCartOutput struct {
	// 204 No Content
}

// Coupon Operations

type CreateCouponInput struct {
	Body dto.CouponCreateDTO `json:"body"`
}

type CreateCouponOutput struct {
	Body dto.CouponResponseDTO `json:"body"`
}

type ValidateCouponInput struct {
	Code     string `path:"code" doc:"Coupon code"`
	Subtotal int64  `query:"subtotal" default:"0" minimum:"0" doc:"Subtotal in USD cents; defaults to the cart subtotal"`
}

type ValidateCouponOutput struct {
	Body dto.CouponValidationDTO `json:"body"`
}

// Order Operations

type CheckoutInput struct {
	Body dto.CheckoutRequestDTO `json:"body"`
}

type CheckoutOutput struct {
	Body dto.OrderResponseDTO `json:"body"`
}

type ListOrdersInput struct {
	Limit  int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Number of orders to return"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Offset for pagination"`
}

type ListOrdersOutput struct {
	Body []dto.OrderResponseDTO `json:"body"`
}

type GetOrderInput struct {
	OrderID string `path:"orderId" doc:"Order ID"`
}

type GetOrderOutput struct {
	Body dto.OrderResponseDTO `json:"body"`
}

type VerifyOrderInput struct {
	OrderID string `path:"orderId" doc:"Order ID"`
}

type VerifyOrderOutput struct {
	Body dto.OrderResponseDTO `json:"body"`
}

type RefundOrderInput struct {
	OrderID string `path:"orderId" doc:"Order ID"`
}

type RefundOrderOutput struct {
	Body dto.OrderResponseDTO `json:"body"`
}
