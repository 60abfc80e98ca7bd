package events

import (
	"fmt"
	"reflect"

	"github.com/xitongsys/parquet-go/schema"
)

const (
	TopicOrderPlaced = "order_placed_events"
	TopicOrderReady  = "order_ready_events"
	TopicOrderPickup = "order_pickup_events"
	TopicRestock     = "restock_events"
	TopicLoyalty     = "loyalty_events"
	TopicFeedback    = "feedback_events"
)

const (
	TypeOrderPlaced    = "order_placed"
	TypeOrderReady     = "order_ready"
	TypeOrderPickedUp  = "order_picked_up"
	TypeRestock        = "restock"
	TypePointsEarned   = "points_earned"
	TypePointsRedeemed = "points_redeemed"
	TypePointsRefunded = "points_refunded"
	TypeFeedback       = "feedback_submitted"
)

// Topics lists every topic the shop publishes to.
var Topics = []string{TopicOrderPlaced, TopicOrderReady, TopicOrderPickup, TopicRestock, TopicLoyalty, TopicFeedback}

// Event is anything the publisher can route.
type Event interface {
	Topic() string
}

// OrderPlacedEvent is published once per successful checkout
type OrderPlacedEvent struct {
	Timestamp      int64   `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	EventType      string  `json:"eventType" parquet:"name=eventType,type=BYTE_ARRAY,convertedtype=UTF8"`
	EventID        string  `json:"eventId" parquet:"name=eventId,type=BYTE_ARRAY,convertedtype=UTF8"`
	OrderNumber    int32   `json:"orderNumber" parquet:"name=orderNumber,type=INT32"`
	TransactionID  string  `json:"transactionId" parquet:"name=transactionId,type=BYTE_ARRAY,convertedtype=UTF8"`
	CustomerName   string  `json:"customerName" parquet:"name=customerName,type=BYTE_ARRAY,convertedtype=UTF8"`
	Items          string  `json:"items" parquet:"name=items,type=BYTE_ARRAY,convertedtype=UTF8"`
	Cups           int32   `json:"cups" parquet:"name=cups,type=INT32"`
	PaymentMethod  string  `json:"paymentMethod" parquet:"name=paymentMethod,type=BYTE_ARRAY,convertedtype=UTF8"`
	DailyOffer     string  `json:"dailyOffer" parquet:"name=dailyOffer,type=BYTE_ARRAY,convertedtype=UTF8"`
	CartTotal      float64 `json:"cartTotal" parquet:"name=cartTotal,type=DOUBLE"`
	CouponCode     string  `json:"couponCode" parquet:"name=couponCode,type=BYTE_ARRAY,convertedtype=UTF8"`
	CouponDiscount float64 `json:"couponDiscount" parquet:"name=couponDiscount,type=DOUBLE"`
	PointsRedeemed int32   `json:"pointsRedeemed" parquet:"name=pointsRedeemed,type=INT32"`
	FinalPrice     float64 `json:"finalPrice" parquet:"name=finalPrice,type=DOUBLE"`
	PointsEarned   int32   `json:"pointsEarned" parquet:"name=pointsEarned,type=INT32"`
	Status         string  `json:"status" parquet:"name=status,type=BYTE_ARRAY,convertedtype=UTF8"`
	EstimatedWait  int64   `json:"estimatedWaitSeconds" parquet:"name=estimatedWaitSeconds,type=INT64"`
}

// OrderReadyEvent is published when the kitchen finishes an order
type OrderReadyEvent struct {
	Timestamp   int64  `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	EventType   string `json:"eventType" parquet:"name=eventType,type=BYTE_ARRAY,convertedtype=UTF8"`
	EventID     string `json:"eventId" parquet:"name=eventId,type=BYTE_ARRAY,convertedtype=UTF8"`
	OrderNumber int32  `json:"orderNumber" parquet:"name=orderNumber,type=INT32"`
	Status      string `json:"status" parquet:"name=status,type=BYTE_ARRAY,convertedtype=UTF8"`
	PlacedAt    int64  `json:"placedAt" parquet:"name=placedAt,type=INT64"`
}

// OrderPickupEvent is published when the customer collects an order
type OrderPickupEvent struct {
	Timestamp   int64  `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	EventType   string `json:"eventType" parquet:"name=eventType,type=BYTE_ARRAY,convertedtype=UTF8"`
	EventID     string `json:"eventId" parquet:"name=eventId,type=BYTE_ARRAY,convertedtype=UTF8"`
	OrderNumber int32  `json:"orderNumber" parquet:"name=orderNumber,type=INT32"`
	Status      string `json:"status" parquet:"name=status,type=BYTE_ARRAY,convertedtype=UTF8"`
	PlacedAt    int64  `json:"placedAt" parquet:"name=placedAt,type=INT64"`
	PickupTime  int64  `json:"pickupTime" parquet:"name=pickupTime,type=INT64"`
}

// RestockEvent is published for every delivery booked into stock
type RestockEvent struct {
	Timestamp int64   `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	EventType string  `json:"eventType" parquet:"name=eventType,type=BYTE_ARRAY,convertedtype=UTF8"`
	EventID   string  `json:"eventId" parquet:"name=eventId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Item      string  `json:"item" parquet:"name=item,type=BYTE_ARRAY,convertedtype=UTF8"`
	Amount    int32   `json:"amount" parquet:"name=amount,type=INT32"`
	Cost      float64 `json:"cost" parquet:"name=cost,type=DOUBLE"`
	Level     int32   `json:"level" parquet:"name=level,type=INT32"`
}

// LoyaltyEvent mirrors one loyalty history row
type LoyaltyEvent struct {
	Timestamp   int64  `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	EventType   string `json:"eventType" parquet:"name=eventType,type=BYTE_ARRAY,convertedtype=UTF8"`
	EventID     string `json:"eventId" parquet:"name=eventId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Username    string `json:"username" parquet:"name=username,type=BYTE_ARRAY,convertedtype=UTF8"`
	Points      int32  `json:"points" parquet:"name=points,type=INT32"`
	Balance     int32  `json:"balance" parquet:"name=balance,type=INT32"`
	Description string `json:"description" parquet:"name=description,type=BYTE_ARRAY,convertedtype=UTF8"`
}

// FeedbackEvent carries a submitted rating
type FeedbackEvent struct {
	Timestamp       int64  `json:"timestamp" parquet:"name=timestamp,type=INT64"`
	EventType       string `json:"eventType" parquet:"name=eventType,type=BYTE_ARRAY,convertedtype=UTF8"`
	EventID         string `json:"eventId" parquet:"name=eventId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Name            string `json:"name" parquet:"name=name,type=BYTE_ARRAY,convertedtype=UTF8"`
	CoffeePurchased string `json:"coffeePurchased" parquet:"name=coffeePurchased,type=BYTE_ARRAY,convertedtype=UTF8"`
	CoffeeRating    int32  `json:"coffeeRating" parquet:"name=coffeeRating,type=INT32"`
	ServiceRating   int32  `json:"serviceRating" parquet:"name=serviceRating,type=INT32"`
	Comment         string `json:"comment" parquet:"name=comment,type=BYTE_ARRAY,convertedtype=UTF8"`
}

func (OrderPlacedEvent) Topic() string { return TopicOrderPlaced }
func (OrderReadyEvent) Topic() string  { return TopicOrderReady }
func (OrderPickupEvent) Topic() string { return TopicOrderPickup }
func (RestockEvent) Topic() string     { return TopicRestock }
func (LoyaltyEvent) Topic() string     { return TopicLoyalty }
func (FeedbackEvent) Topic() string    { return TopicFeedback }

func (e *OrderPlacedEvent) stamp(ts int64, eventType, id string) {
	e.Timestamp, e.EventType, e.EventID = ts, eventType, id
}

func (e *OrderReadyEvent) stamp(ts int64, eventType, id string) {
	e.Timestamp, e.EventType, e.EventID = ts, eventType, id
}

func (e *OrderPickupEvent) stamp(ts int64, eventType, id string) {
	e.Timestamp, e.EventType, e.EventID = ts, eventType, id
}

func (e *RestockEvent) stamp(ts int64, eventType, id string) {
	e.Timestamp, e.EventType, e.EventID = ts, eventType, id
}

func (e *LoyaltyEvent) stamp(ts int64, eventType, id string) {
	e.Timestamp, e.EventType, e.EventID = ts, eventType, id
}

func (e *FeedbackEvent) stamp(ts int64, eventType, id string) {
	e.Timestamp, e.EventType, e.EventID = ts, eventType, id
}

var prototypes = map[string]reflect.Type{
	TopicOrderPlaced: reflect.TypeOf(OrderPlacedEvent{}),
	TopicOrderReady:  reflect.TypeOf(OrderReadyEvent{}),
	TopicOrderPickup: reflect.TypeOf(OrderPickupEvent{}),
	TopicRestock:     reflect.TypeOf(RestockEvent{}),
	TopicLoyalty:     reflect.TypeOf(LoyaltyEvent{}),
	TopicFeedback:    reflect.TypeOf(FeedbackEvent{}),
}

// New returns a pointer to a zero event of the topic's type.
func New(topic string) (interface{}, error) {
	t, ok := prototypes[topic]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", topic)
	}
	return reflect.New(t).Interface(), nil
}

func GetSchema(topic string) (*schema.SchemaHandler, error) {
	proto, err := New(topic)
	if err != nil {
		return nil, err
	}
	sh, err := schema.NewSchemaHandlerFromStruct(proto)
	if err != nil {
		return nil, fmt.Errorf("error creating schema for %s: %w", topic, err)
	}
	return sh, nil
}
