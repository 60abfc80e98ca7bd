package models

const (
	OrderStatusBeingProcessed = "Being Processed"
	OrderStatusReady          = "Ready"
	OrderStatusPickedUp       = "Picked Up"

	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"

	AddOnExtraSugar = "Extra sugar"
	AddOnExtraMilk  = "Extra milk"

	ResourceCoffeeBeans Resource = "coffee_beans"
	ResourceMilk        Resource = "milk"
	ResourceSugar       Resource = "sugar"
	ResourceCups        Resource = "cups"

	OfferPercentDiscount OfferKind = "percent_discount"
	OfferBOGO            OfferKind = "bogo"
	OfferDoublePoints    OfferKind = "double_points"
	OfferNone            OfferKind = "none"

	// OfferAppliesToAll and OfferAppliesToAny are the non-coffee targets a daily offer may carry.
	OfferAppliesToAll = "all"
	OfferAppliesToAny = "any"

	PaymentCreditCard = "Credit Card"
	PaymentDebitCard  = "Debit Card"
	PaymentCash       = "Cash"

	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"

	LoyaltyEarnedDescription   = "Points earned from a purchase"
	LoyaltyRedeemedDescription = "Points redeemed for a discount"
	LoyaltyRefundedDescription = "Points refunded for a cancelled order"
)

// Resources lists the stock counters in the order shortages are reported.
var Resources = []Resource{ResourceCoffeeBeans, ResourceMilk, ResourceSugar, ResourceCups}

// Sizes lists the cup sizes in menu order.
var Sizes = []Size{SizeSmall, SizeMedium, SizeLarge}
