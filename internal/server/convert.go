package server

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/rx-intake/internal/common"
)

// toValue converts any JSON-tagged value into a protobuf Value.
func toValue(v any) (*structpb.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", common.ErrInternal, err)
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", common.ErrInternal, err)
	}
	pv, err := structpb.NewValue(generic)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", common.ErrInternal, err)
	}
	return pv, nil
}

// fromValue decodes a protobuf Value into dst through its JSON tags.
func fromValue(v *structpb.Value, dst any) error {
	if v == nil {
		return fmt.Errorf("%w: missing value", common.ErrInvalidInput)
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	return nil
}

func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[key].GetStringValue()
}

func stringMapField(s *structpb.Struct, key string) (map[string]string, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return map[string]string{}, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return map[string]string{}, nil
	}
	out := map[string]string{}
	if err := fromValue(v, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return out, nil
}
