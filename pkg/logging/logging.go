package logging

import (
	"encoding/json"
	"log"
	"time"
)

type Fields struct {
	Service    string `json:"service"`
	CustomerID string `json:"customer_id,omitempty"`
	OrderRef   string `json:"order_ref,omitempty"`
	ProductID  string `json:"product_id,omitempty"`
	Step       string `json:"step,omitempty"`
	Status     string `json:"status,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
	Message    string `json:"message,omitempty"`
}

func Log(fields Fields) {
	payload := map[string]any{
		"service":     fields.Service,
		"customer_id": fields.CustomerID,
		"order_ref":   fields.OrderRef,
		"product_id":  fields.ProductID,
		"step":        fields.Step,
		"status":      fields.Status,
		"duration_ms": fields.DurationMS,
		"message":     fields.Message,
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("{\"service\":%q,\"status\":\"log_error\",\"error\":%q}", fields.Service, err.Error())
		return
	}
	log.Print(string(data))
}

// Error logs a failed step with the error message attached.
func Error(service, step string, err error) {
	Log(Fields{Service: service, Step: step, Status: "error", Message: err.Error()})
}
