package nakama

import (
	"errors"
	"fmt"
	"math"

	"landlord/internal/domain"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	errMalformedPayload = errors.New("malformed payload")
	errMalformedCard    = errors.New("malformed card")
)

var marshalOptions = protojson.MarshalOptions{EmitUnpopulated: true}

// encodeMessage marshals fields as a JSON object. Values must be ones
// structpb.NewValue accepts.
func encodeMessage(fields map[string]interface{}) ([]byte, error) {
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return marshalOptions.Marshal(msg)
}

// decodeMessage parses a client payload. An empty payload is an empty object.
func decodeMessage(data []byte) (*structpb.Struct, error) {
	msg := &structpb.Struct{}
	if len(data) == 0 {
		return msg, nil
	}
	if err := protojson.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedPayload, err)
	}
	return msg, nil
}

func cardsToValues(cards []domain.Card) []interface{} {
	out := make([]interface{}, len(cards))
	for i, c := range cards {
		out[i] = map[string]interface{}{
			"rank": int(c.Rank),
			"suit": int(c.Suit),
		}
	}
	return out
}

// cardsFromMessage reads the "cards" list of a play request.
func cardsFromMessage(msg *structpb.Struct) ([]domain.Card, error) {
	list := msg.GetFields()["cards"].GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: cards list missing", errMalformedPayload)
	}

	cards := make([]domain.Card, 0, len(list.GetValues()))
	for i, v := range list.GetValues() {
		fields := v.GetStructValue().GetFields()
		rank, okRank := integerField(fields, "rank")
		suit, okSuit := integerField(fields, "suit")
		if !okRank || !okSuit {
			return nil, fmt.Errorf("%w: entry %d", errMalformedCard, i)
		}
		card := domain.Card{Rank: domain.Rank(rank), Suit: domain.Suit(suit)}
		if !card.Valid() {
			return nil, fmt.Errorf("%w: entry %d is not in the deck", errMalformedCard, i)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func integerField(fields map[string]*structpb.Value, key string) (int, bool) {
	v, ok := fields[key]
	if !ok {
		return 0, false
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, false
	}
	return int(n.NumberValue), true
}

func seatsToValues(seats [domain.PlayerCount]string) []interface{} {
	out := make([]interface{}, len(seats))
	for i, s := range seats {
		out[i] = s
	}
	return out
}

// encodeLabel builds the match label clients and quick match filter on.
func encodeLabel(open int, state string) (string, error) {
	b, err := encodeMessage(map[string]interface{}{
		"game":  GameLabel,
		"open":  open,
		"state": state,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
