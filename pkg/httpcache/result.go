package httpcache

// Kind tells whether a fetch produced new data
type Kind int

const (
	// Miss means the body was received from the origin and has not been seen before
	Miss Kind = iota
	// Hit means the body came from cache, nothing changed since the last successful fetch
	Hit
)

func (k Kind) String() string {
	switch k {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	default:
		return "unknown"
	}
}

type Result struct {
	Kind     Kind
	Response *Response
}

func HitResult(resp *Response) *Result {
	return &Result{Kind: Hit, Response: resp}
}

func MissResult(resp *Response) *Result {
	return &Result{Kind: Miss, Response: resp}
}
