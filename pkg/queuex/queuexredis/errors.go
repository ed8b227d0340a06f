package queuexredis

import "github.com/Abraxas-365/workgate/pkg/errx"

var redisErrors = errx.NewRegistry("QUEUEX_REDIS")

var (
	ErrEnqueue     = redisErrors.Register("ENQUEUE", errx.TypeExternal, 500, "Redis enqueue failed")
	ErrDequeue     = redisErrors.Register("DEQUEUE", errx.TypeExternal, 500, "Redis dequeue failed")
	ErrAck         = redisErrors.Register("ACK", errx.TypeExternal, 500, "Redis ack failed")
	ErrPromote     = redisErrors.Register("PROMOTE", errx.TypeExternal, 500, "Redis promote failed")
	ErrInvalidTask = redisErrors.Register("INVALID_TASK", errx.TypeValidation, 400, "Invalid task definition")
	ErrMarshal     = redisErrors.Register("MARSHAL", errx.TypeInternal, 500, "Failed to marshal task data")
	ErrUnmarshal   = redisErrors.Register("UNMARSHAL", errx.TypeInternal, 500, "Failed to unmarshal task data")
)
