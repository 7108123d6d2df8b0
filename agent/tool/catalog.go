package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/voicedesk/agent/contract"
	schedulex "github.com/tanpawarit/voicedesk/agent/schedule"
)

const (
	ToolGetAvailableSlots = "schedule.get_available_slots"
	ToolBookAppointment   = "schedule.book_appointment"
	ToolAddBusySlot       = "schedule.add_busy_slot"
	ToolGetBusySlots      = "schedule.get_busy_slots"
	ToolGetTodaysDate     = "schedule.get_todays_date"
	ToolGetCarFeatures    = "catalog.get_car_features"
)

const (
	noAvailableSlotsMessage = "There are currently no available appointment slots."
	noBusySlotsMessage      = "There are currently no busy appointment slots."
	slotConflictMessage     = "Sorry, that slot is no longer available. Please choose another time."
	calendarApologyMessage  = "I'm sorry, I'm having trouble accessing the appointment calendar right now. Please try again in a moment."
	unknownCarModelMessage  = "I don't have specific information about that model, but I'd be happy to discuss our popular options when you visit the dealership."
)

// carFeatures is the dealership's static model lineup pitch, keyed by
// lowercase model class.
var carFeatures = map[string]string{
	"sedan":  "Our sedan models feature excellent fuel economy averaging 35 MPG, advanced safety features including automated emergency braking, and a spacious interior with premium sound system.",
	"suv":    "Our SUVs offer best-in-class cargo space, all-wheel drive capability, third-row seating options, and advanced driver assistance features like adaptive cruise control.",
	"truck":  "Our trucks boast impressive towing capacity up to 12,000 pounds, durable bed liners, advanced 4x4 systems, and fuel-efficient engine options.",
	"hybrid": "Our hybrid models deliver exceptional fuel efficiency up to 55 MPG, reduced emissions, regenerative braking systems, and a smooth, quiet ride.",
	"sports": "Our sports models feature high-performance engines with 0-60 times under 5 seconds, sport-tuned suspensions, premium audio systems, and sleek aerodynamic designs.",
}

type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

// BuildForAssistant returns the scheduling tool declarations together with an
// executor dispatching on tool name. Results are plain text for the model to
// speak; storage failures surface as an apology, never as a crashed turn.
func BuildForAssistant(store schedulex.Store, now func() time.Time) ([]*schema.ToolInfo, Executor) {
	return Infos(), NewExecutor(store, now)
}

func NewExecutor(store schedulex.Store, now func() time.Time) Executor {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		switch tool {
		case ToolGetAvailableSlots:
			return executeGetAvailableSlots(ctx, store)
		case ToolBookAppointment:
			return executeBookAppointment(ctx, store, args)
		case ToolAddBusySlot:
			return executeAddBusySlot(ctx, store, args)
		case ToolGetBusySlots:
			return executeGetBusySlots(ctx, store)
		case ToolGetTodaysDate:
			return contractx.ToolResult{Tool: tool, Result: now().Format(schedulex.DateLayout)}, nil
		case ToolGetCarFeatures:
			return executeGetCarFeatures(args)
		default:
			return contractx.ToolResult{
				Tool:  tool,
				Error: fmt.Sprintf("tool=%s is unavailable", tool),
			}, nil
		}
	}
}

func executeGetAvailableSlots(ctx context.Context, store schedulex.Store) (contractx.ToolResult, error) {
	slots, err := store.ListAvailable(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list available slots failed")
		return contractx.ToolResult{Tool: ToolGetAvailableSlots, Result: calendarApologyMessage}, nil
	}
	if len(slots) == 0 {
		return contractx.ToolResult{Tool: ToolGetAvailableSlots, Result: noAvailableSlotsMessage}, nil
	}
	return contractx.ToolResult{
		Tool:   ToolGetAvailableSlots,
		Result: formatSlots("Available appointment slots:", slots),
	}, nil
}

func executeGetBusySlots(ctx context.Context, store schedulex.Store) (contractx.ToolResult, error) {
	slots, err := store.ListBusy(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list busy slots failed")
		return contractx.ToolResult{Tool: ToolGetBusySlots, Result: calendarApologyMessage}, nil
	}
	if len(slots) == 0 {
		return contractx.ToolResult{Tool: ToolGetBusySlots, Result: noBusySlotsMessage}, nil
	}
	return contractx.ToolResult{
		Tool:   ToolGetBusySlots,
		Result: formatSlots("Busy appointment slots:", slots),
	}, nil
}

func executeBookAppointment(ctx context.Context, store schedulex.Store, args map[string]any) (contractx.ToolResult, error) {
	name, err := stringArg(args, "name")
	if err != nil {
		return contractx.ToolResult{Tool: ToolBookAppointment, Error: err.Error()}, nil
	}
	phone, err := stringArg(args, "phone")
	if err != nil {
		return contractx.ToolResult{Tool: ToolBookAppointment, Error: err.Error()}, nil
	}
	date, err := stringArg(args, "date")
	if err != nil {
		return contractx.ToolResult{Tool: ToolBookAppointment, Error: err.Error()}, nil
	}
	timeOfDay, err := stringArg(args, "time")
	if err != nil {
		return contractx.ToolResult{Tool: ToolBookAppointment, Error: err.Error()}, nil
	}

	outcome, err := store.Book(ctx, name, phone, date, timeOfDay)
	switch {
	case errors.Is(err, schedulex.ErrInvalidSlot):
		return contractx.ToolResult{Tool: ToolBookAppointment, Error: err.Error()}, nil
	case err != nil:
		log.Error().Err(err).Str("date", date).Str("time", timeOfDay).Msg("book appointment failed")
		return contractx.ToolResult{Tool: ToolBookAppointment, Result: calendarApologyMessage}, nil
	case outcome == schedulex.BookingConflict:
		return contractx.ToolResult{Tool: ToolBookAppointment, Result: slotConflictMessage}, nil
	}

	return contractx.ToolResult{
		Tool:   ToolBookAppointment,
		Result: fmt.Sprintf("Appointment successfully booked for %s on %s at %s.", name, date, timeOfDay),
	}, nil
}

func executeAddBusySlot(ctx context.Context, store schedulex.Store, args map[string]any) (contractx.ToolResult, error) {
	date, err := stringArg(args, "date")
	if err != nil {
		return contractx.ToolResult{Tool: ToolAddBusySlot, Error: err.Error()}, nil
	}
	timeOfDay, err := stringArg(args, "time")
	if err != nil {
		return contractx.ToolResult{Tool: ToolAddBusySlot, Error: err.Error()}, nil
	}

	if err := store.MarkBusy(ctx, date, timeOfDay); err != nil {
		if errors.Is(err, schedulex.ErrInvalidSlot) {
			return contractx.ToolResult{Tool: ToolAddBusySlot, Error: err.Error()}, nil
		}
		log.Error().Err(err).Str("date", date).Str("time", timeOfDay).Msg("add busy slot failed")
		return contractx.ToolResult{Tool: ToolAddBusySlot, Result: calendarApologyMessage}, nil
	}

	return contractx.ToolResult{
		Tool:   ToolAddBusySlot,
		Result: fmt.Sprintf("Successfully added busy slot on %s at %s.", date, timeOfDay),
	}, nil
}

func executeGetCarFeatures(args map[string]any) (contractx.ToolResult, error) {
	carModel, err := stringArg(args, "car_model")
	if err != nil {
		return contractx.ToolResult{Tool: ToolGetCarFeatures, Error: err.Error()}, nil
	}

	features, ok := carFeatures[strings.ToLower(carModel)]
	if !ok {
		log.Warn().Str("car_model", carModel).Msg("no feature info for requested model")
		return contractx.ToolResult{Tool: ToolGetCarFeatures, Result: unknownCarModelMessage}, nil
	}
	return contractx.ToolResult{Tool: ToolGetCarFeatures, Result: features}, nil
}

func formatSlots(heading string, slots []schedulex.Slot) string {
	var sb strings.Builder
	sb.WriteString(heading)
	for _, slot := range slots {
		sb.WriteString(fmt.Sprintf("\n- %s at %s", slot.Date, slot.Time))
	}
	return sb.String()
}

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

func Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolGetAvailableSlots,
			Desc: "Get the list of available appointment slots.",
		},
		{
			Name: ToolBookAppointment,
			Desc: "Book an appointment for the customer.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"name":  {Type: schema.String, Desc: "Customer name", Required: true},
				"phone": {Type: schema.String, Desc: "Customer phone number", Required: true},
				"date":  {Type: schema.String, Desc: "Appointment date in YYYY-MM-DD format", Required: true},
				"time":  {Type: schema.String, Desc: "Appointment time in HH:MM format", Required: true},
			}),
		},
		{
			Name: ToolAddBusySlot,
			Desc: "Mark a slot as busy so it cannot be booked.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"date": {Type: schema.String, Desc: "Date to mark as busy in YYYY-MM-DD format", Required: true},
				"time": {Type: schema.String, Desc: "Time to mark as busy in HH:MM format", Required: true},
			}),
		},
		{
			Name: ToolGetBusySlots,
			Desc: "Get the list of busy appointment slots.",
		},
		{
			Name: ToolGetTodaysDate,
			Desc: "Get the current date in YYYY-MM-DD format.",
		},
		{
			Name: ToolGetCarFeatures,
			Desc: "Get key features for a specific car model.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"car_model": {Type: schema.String, Desc: "Car model to describe, e.g. sedan, suv, truck, hybrid, sports", Required: true},
			}),
		},
	}
}
