// Package wire encodes domain events and notifications as protobuf Struct
// messages for Pub/Sub.
package wire

import (
	"errors"
	"fmt"
	"time"

	"github.com/rbroggi/datingha/internal/core/model"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// AttributeEventType is the message attribute carrying the event type.
const AttributeEventType = "event_type"

// ErrUnknownEvent is returned when a payload carries an unsupported event type.
var ErrUnknownEvent = errors.New("unknown event type")

// EncodeEvent serializes a domain event.
func EncodeEvent(event model.Event) ([]byte, error) {
	fields := map[string]interface{}{
		"type":        string(event.Type()),
		"occurred_at": event.OccurredAt().UTC().Format(time.RFC3339Nano),
	}
	switch e := event.(type) {
	case model.UserSwipedEvent:
		fields["swiper_id"] = e.SwiperID.String()
		fields["target_id"] = e.TargetID.String()
		fields["direction"] = string(e.Direction)
	case model.MatchCreatedEvent:
		fields["match_id"] = e.MatchID.String()
		fields["user_a"] = e.UserA.String()
		fields["user_b"] = e.UserB.String()
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEvent, event)
	}
	return marshal(fields)
}

// DecodeEvent parses a payload produced by EncodeEvent.
func DecodeEvent(data []byte) (model.Event, error) {
	f, err := unmarshal(data)
	if err != nil {
		return nil, err
	}
	at, err := f.time("occurred_at")
	if err != nil {
		return nil, err
	}
	switch model.EventType(f.str("type")) {
	case model.EventTypeUserSwiped:
		swiper, err := model.ParseUserID(f.str("swiper_id"))
		if err != nil {
			return nil, err
		}
		target, err := model.ParseUserID(f.str("target_id"))
		if err != nil {
			return nil, err
		}
		direction, err := model.ParseSwipeDirection(f.str("direction"))
		if err != nil {
			return nil, err
		}
		return model.UserSwipedEvent{SwiperID: swiper, TargetID: target, Direction: direction, At: at}, nil
	case model.EventTypeMatchCreated:
		userA, err := model.ParseUserID(f.str("user_a"))
		if err != nil {
			return nil, err
		}
		userB, err := model.ParseUserID(f.str("user_b"))
		if err != nil {
			return nil, err
		}
		return model.MatchCreatedEvent{MatchID: model.MatchID(f.str("match_id")), UserA: userA, UserB: userB, At: at}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, f.str("type"))
	}
}

// EncodeNotification serializes a match notification.
func EncodeNotification(n model.MatchNotification) ([]byte, error) {
	return marshal(map[string]interface{}{
		"recipient_id":         n.RecipientID.String(),
		"match_id":             n.MatchID.String(),
		"partner_id":           n.PartnerID.String(),
		"partner_display_name": n.PartnerDisplayName,
		"occurred_at":          n.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
}

// DecodeNotification parses a payload produced by EncodeNotification.
func DecodeNotification(data []byte) (model.MatchNotification, error) {
	f, err := unmarshal(data)
	if err != nil {
		return model.MatchNotification{}, err
	}
	recipient, err := model.ParseUserID(f.str("recipient_id"))
	if err != nil {
		return model.MatchNotification{}, err
	}
	partner, err := model.ParseUserID(f.str("partner_id"))
	if err != nil {
		return model.MatchNotification{}, err
	}
	at, err := f.time("occurred_at")
	if err != nil {
		return model.MatchNotification{}, err
	}
	return model.MatchNotification{
		RecipientID:        recipient,
		MatchID:            model.MatchID(f.str("match_id")),
		PartnerID:          partner,
		PartnerDisplayName: f.str("partner_display_name"),
		OccurredAt:         at,
	}, nil
}

func marshal(fields map[string]interface{}) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("error building struct message: %w", err)
	}
	data, err := proto.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("error marshaling struct message: %w", err)
	}
	return data, nil
}

type fieldMap map[string]interface{}

func unmarshal(data []byte) (fieldMap, error) {
	s := new(structpb.Struct)
	if err := proto.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("error unmarshaling struct message: %w", err)
	}
	return fieldMap(s.AsMap()), nil
}

func (f fieldMap) str(key string) string {
	v, _ := f[key].(string)
	return v
}

func (f fieldMap) time(key string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, f.str(key))
	if err != nil {
		return time.Time{}, fmt.Errorf("error parsing %s: %w", key, err)
	}
	return t, nil
}
