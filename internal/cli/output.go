package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"shopsync/internal/lineitems"
	"shopsync/internal/model"
)

// ErrRejected is returned after printing a result the storefront rejected.
var ErrRejected = errors.New("rejected by storefront")

// rejecter is implemented by outputs that may carry a storefront rejection.
type rejecter interface {
	rejection() error
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type resultOutput[T any] struct {
	model.Result[T]
}

func (o resultOutput[T]) rejection() error {
	return rejectionOf(o.Result)
}

// fromResult adapts a gateway-style return for runner.run.
func fromResult[T any](r model.Result[T], err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return resultOutput[T]{r}, nil
}

type addOutput struct {
	*lineitems.AddResult
}

func (o addOutput) rejection() error {
	return rejectionOf(o.Remote)
}

func rejectionOf[T any](r model.Result[T]) error {
	if r.OK() {
		return nil
	}
	msgs := make([]string, 0, len(r.UserErrors))
	for _, ue := range r.UserErrors {
		msgs = append(msgs, ue.String())
	}
	if len(msgs) == 0 {
		return ErrRejected
	}
	return fmt.Errorf("%w: %s", ErrRejected, strings.Join(msgs, "; "))
}
