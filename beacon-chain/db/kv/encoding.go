package kv

import (
	"reflect"

	"github.com/golang/snappy"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// errNilValue is returned when asked to encode a nil value.
var errNilValue = errors.New("cannot encode nil value")

func decode(data []byte, dst interface{}) error {
	data, err := snappy.Decode(nil, data)
	if err != nil {
		return errors.Wrap(err, "could not snappy decode")
	}
	return json.Unmarshal(data, dst)
}

func encode(v interface{}) ([]byte, error) {
	if v == nil || reflect.ValueOf(v).IsNil() {
		return nil, errNilValue
	}
	enc, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, enc), nil
}
