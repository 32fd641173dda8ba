package dto

import "time"

type LineItem struct {
	PlatformID     string `json:"platformId" validate:"required,max=64"`
	SubscriptionID string `json:"subscriptionId" validate:"required,max=64"`
	RecipientEmail string `json:"recipientEmail" validate:"omitempty,email,max=254"`
	RecipientName  string `json:"recipientName" validate:"omitempty,max=100"`
	SenderName     string `json:"senderName" validate:"omitempty,max=100"`
	Message        string `json:"message,omitempty" validate:"omitempty,max=1000"`
}

type CartCheckoutRequest struct {
	Items []*LineItem `json:"items" validate:"required,min=1,max=25,dive,required"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type OrderItem struct {
	PlatformID     string `json:"platformId"`
	PlatformName   string `json:"platformName"`
	SubscriptionID string `json:"subscriptionId"`
	Period         string `json:"period,omitempty"`
	RecipientName  string `json:"recipientName"`
	RecipientEmail string `json:"recipientEmail"`
	SenderName     string `json:"senderName"`
}

type RecipientInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Sender  string `json:"sender"`
	Message string `json:"message,omitempty"`
}

type SessionSummary struct {
	SessionID     string        `json:"sessionId"`
	OrderID       string        `json:"orderId"`
	Status        string        `json:"status"`
	PaymentStatus string        `json:"paymentStatus"`
	Amount        string        `json:"amount"`
	Currency      string        `json:"currency"`
	Items         []OrderItem   `json:"items"`
	RecipientInfo RecipientInfo `json:"recipientInfo"`
}

type GiftCodeRequest struct {
	Code  string `json:"code" validate:"required,max=64"`
	Email string `json:"email,omitempty" validate:"omitempty,email,max=254"`
}

type GiftDetails struct {
	Code                string    `json:"code"`
	PlatformID          string    `json:"platformId"`
	PlatformName        string    `json:"platformName"`
	PlatformDescription string    `json:"platformDescription"`
	SubscriptionID      string    `json:"subscriptionId"`
	Period              string    `json:"period,omitempty"`
	SenderName          string    `json:"senderName"`
	RecipientName       string    `json:"recipientName"`
	Message             string    `json:"message,omitempty"`
	ExpiresAt           time.Time `json:"expiresAt"`
}

type RedemptionResult struct {
	PlatformID     string    `json:"platformId"`
	SubscriptionID string    `json:"subscriptionId"`
	RedeemedAt     time.Time `json:"redeemedAt"`
}

type PlatformResponse struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Company       string                 `json:"company,omitempty"`
	Category      string                 `json:"category,omitempty"`
	Description   string                 `json:"description"`
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
}

type SubscriptionResponse struct {
	ID      string `json:"id"`
	Period  string `json:"period"`
	Tier    string `json:"tier,omitempty"`
	Price   string `json:"price"`
	Popular bool   `json:"popular"`
}

type GiftCodeStatus struct {
	Code           string     `json:"code"`
	Status         string     `json:"status"`
	OrderID        string     `json:"orderId,omitempty"`
	SessionID      string     `json:"sessionId,omitempty"`
	ItemIndex      int        `json:"itemIndex"`
	PlatformID     string     `json:"platformId"`
	SubscriptionID string     `json:"subscriptionId"`
	RecipientEmail string     `json:"recipientEmail"`
	ExpiresAt      time.Time  `json:"expiresAt"`
	RedeemedAt     *time.Time `json:"redeemedAt,omitempty"`
	EmailSentAt    *time.Time `json:"emailSentAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type OrderResponse struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"sessionId"`
	Status         string    `json:"status"`
	PlatformID     string    `json:"platformId"`
	SubscriptionID string    `json:"subscriptionId"`
	RecipientEmail string    `json:"recipientEmail"`
	ItemCount      int       `json:"itemCount"`
	Amount         string    `json:"amount"`
	Currency       string    `json:"currency"`
	PaymentID      string    `json:"paymentId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
