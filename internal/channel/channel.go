// Package channel implements the camera_channel method-call control surface.
package channel

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Name is the channel name clients address.
const Name = "camera_channel"

// Method names.
const (
	MethodChangePoseGraphic = "changePoseGraphic"
	MethodDispose           = "dispose"
	MethodSwitchCamera      = "switchCamera"
)

// Error codes.
const (
	CodeBadArgs     = "BAD_ARGS"
	CodeUnavailable = "UNAVAILABLE"
)

// MethodCall is a named call with optional JSON arguments.
type MethodCall struct {
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Error is a failed call's code and message.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Result answers a MethodCall. Exactly one of Result, NotImplemented or Error is set.
type Result struct {
	Result         any    `json:"result,omitempty"`
	NotImplemented bool   `json:"notImplemented,omitempty"`
	Error          *Error `json:"error,omitempty"`
}

// Controller is what the channel drives.
type Controller interface {
	ChangePoseGraphic(variant int) error
	SwitchCamera() error
	Dispose() error
}

// Handler dispatches method calls to a Controller.
type Handler struct {
	controller Controller
	logger     *zap.Logger
}

// NewHandler creates a Handler for c.
func NewHandler(c Controller, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{controller: c, logger: logger}
}

type poseGraphicArgs struct {
	Graphic *int `json:"graphic"`
}

// Handle runs call and returns its result.
func (h *Handler) Handle(call MethodCall) Result {
	var err error
	switch call.Method {
	case MethodChangePoseGraphic:
		var args poseGraphicArgs
		if len(call.Arguments) == 0 {
			return failure(CodeBadArgs, "arguments required")
		}
		if jerr := json.Unmarshal(call.Arguments, &args); jerr != nil {
			return failure(CodeBadArgs, jerr.Error())
		}
		if args.Graphic == nil {
			return failure(CodeBadArgs, "graphic is required")
		}
		err = h.controller.ChangePoseGraphic(*args.Graphic)
	case MethodDispose:
		err = h.controller.Dispose()
	case MethodSwitchCamera:
		err = h.controller.SwitchCamera()
	default:
		h.logger.Debug("method not implemented", zap.String("method", call.Method))
		return Result{NotImplemented: true}
	}

	if err != nil {
		h.logger.Warn("method call failed", zap.String("method", call.Method), zap.Error(err))
		return failure(CodeUnavailable, err.Error())
	}
	return Result{Result: true}
}

func failure(code, message string) Result {
	return Result{Error: &Error{Code: code, Message: message}}
}
