package store

import (
	"encoding/json"
	"fmt"

	"golang.org/x/mod/semver"

	"shopsync/internal/model"
)

// RecordVersion is written into every persisted record.
// Records from a different major version are discarded on load.
const RecordVersion = "v1.0.0"

type record struct {
	Version string               `json:"version"`
	State   model.PersistedState `json:"state"`
}

func encodeRecord(state model.PersistedState) ([]byte, error) {
	return json.Marshal(record{Version: RecordVersion, State: state})
}

// decodeRecord parses a stored record. compatible=false means the record was
// written by an incompatible version and should be ignored.
func decodeRecord(data []byte) (state model.PersistedState, compatible bool, err error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.PersistedState{}, false, fmt.Errorf("parsing state record: %w", err)
	}

	if !semver.IsValid(rec.Version) || semver.Major(rec.Version) != semver.Major(RecordVersion) {
		return model.InitialState(), false, nil
	}

	// A half-written token pair is unusable.
	if (rec.State.CustomerAccessToken == nil) != (rec.State.CustomerAccessTokenExpiresAt == nil) {
		rec.State.CustomerAccessToken = nil
		rec.State.CustomerAccessTokenExpiresAt = nil
	}
	if rec.State.CheckoutLineItems == nil {
		rec.State.CheckoutLineItems = []model.LineItem{}
	}
	return rec.State, true, nil
}
