package decode

import (
	"encoding/json"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/Bhawani9828/slack-clone-sub001/tools/errs"
)

// Client event payloads arrive as loosely-typed JSON objects. Decode turns a
// map[string]any into the typed payload struct for that event, tolerating the
// usual JavaScript sloppiness ("42" for 42, 1.0 for 1) so the state machines
// only ever see validated, typed data.

// Options customizes decoding; the zero value means strict typing.
type Options struct {
	WeaklyTypedInput bool
}

func DefaultOptions() Options {
	return Options{WeaklyTypedInput: true}
}

// Map decodes m into a fresh T using `json` tags.
func Map[T any](m map[string]any, opts ...Options) (*T, error) {
	if m == nil {
		return nil, errs.ErrPayloadInvalid.WithDetail("payload is nil")
	}

	cfg := DefaultOptions()
	if len(opts) > 0 {
		cfg = opts[0]
	}

	var out T
	decCfg := &mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: cfg.WeaklyTypedInput,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			floatToIntHook(),
			jsonRawStringToMapHook(),
		),
	}

	dec, err := mapstructure.NewDecoder(decCfg)
	if err != nil {
		return nil, errs.Wrap(err, "new decoder")
	}
	if err := dec.Decode(m); err != nil {
		return nil, errs.ErrPayloadInvalid.WithDetail(err.Error())
	}
	return &out, nil
}

// Raw decodes a raw JSON object into T via Map.
func Raw[T any](raw json.RawMessage, opts ...Options) (*T, error) {
	if len(raw) == 0 {
		return nil, errs.ErrPayloadInvalid.WithDetail("payload is empty")
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errs.ErrPayloadInvalid.WithDetail(err.Error())
	}
	return Map[T](m, opts...)
}

// floatToIntHook converts float64 to int kinds (JSON numbers decode as
// float64).
func floatToIntHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Kind, data any) (any, error) {
		if from != reflect.Float64 {
			return data, nil
		}
		switch to {
		case reflect.Int:
			return int(data.(float64)), nil
		case reflect.Int32:
			return int32(data.(float64)), nil
		case reflect.Int64:
			return int64(data.(float64)), nil
		}
		return data, nil
	}
}

// jsonRawStringToMapHook converts an embedded JSON string into a map, for
// clients that double-encode nested objects.
func jsonRawStringToMapHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Kind, data any) (any, error) {
		if from != reflect.String || to != reflect.Map {
			return data, nil
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(data.(string)), &m); err == nil {
			return m, nil
		}
		return data, nil
	}
}
