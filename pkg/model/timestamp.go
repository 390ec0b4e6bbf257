package model

import (
	"strconv"
	"time"
)

// Timestamp is a time serialized to JSON as microseconds since the Unix epoch
type Timestamp time.Time

func (t Timestamp) MarshalJSON() ([]byte, error) {
	ts := time.Time(t).UnixMicro()
	return []byte(strconv.FormatInt(ts, 10)), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	ts, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}

	*t = Timestamp(time.UnixMicro(ts).UTC())
	return nil
}
