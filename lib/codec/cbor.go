// Package codec holds the CBOR encoding used for request and response bodies
// sent as application/cbor.
package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

const ContentType = "application/cbor"

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2),
// so the same value always produces the same body bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Bodies decoded into any must be usable with encoding/json.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
