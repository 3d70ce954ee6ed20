package wheresql

import (
	"fmt"

	"github.com/hugr-lab/wheresql/internal/msgpack"
	"github.com/hugr-lab/wheresql/internal/serialize"
)

// Request is one unit of work for CompileBatch and the binary encoding.
type Request struct {
	// Name identifies the request in logs and batch results.
	Name    string
	Dialect string
	Fields  Fields
	Query   Query
}

func (r Request) envelope() msgpack.Envelope {
	return msgpack.Envelope{
		Name:    r.Name,
		Dialect: r.Dialect,
		Fields:  r.Fields,
		Where:   r.Query.Where,
		Limit:   r.Query.Limit,
		Macros:  r.Query.Macros,
	}
}

func fromEnvelope(env msgpack.Envelope) Request {
	return Request{
		Name:    env.Name,
		Dialect: env.Dialect,
		Fields:  env.Fields,
		Query: Query{
			Where:  env.Where,
			Limit:  env.Limit,
			Macros: env.Macros,
		},
	}
}

// MarshalRequests encodes requests as a MessagePack array, ZStandard
// compressed when compress is set.
func MarshalRequests(reqs []Request, compress bool) ([]byte, error) {
	envs := make([]msgpack.Envelope, len(reqs))
	for i, r := range reqs {
		envs[i] = r.envelope()
	}
	data, err := msgpack.Encode(envs)
	if err != nil {
		return nil, err
	}
	if !compress {
		return data, nil
	}

	return serialize.Compress(data)
}

// UnmarshalRequests decodes the output of MarshalRequests. Compressed
// input is detected by its ZStandard header. A single encoded envelope is
// accepted as a batch of one.
func UnmarshalRequests(data []byte) ([]Request, error) {
	data, err := serialize.Unwrap(data)
	if err != nil {
		return nil, wrap(fmt.Errorf("%w: %v", ErrInvalidQuery, err))
	}

	envs, err := msgpack.DecodeEnvelopes(data)
	if err != nil {
		env, single := msgpack.DecodeEnvelope(data)
		if single != nil {
			return nil, wrap(fmt.Errorf("%w: %v", ErrInvalidQuery, err))
		}
		envs = []msgpack.Envelope{*env}
	}

	reqs := make([]Request, len(envs))
	for i, env := range envs {
		reqs[i] = fromEnvelope(env)
	}
	return reqs, nil
}
