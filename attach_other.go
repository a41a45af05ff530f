//go:build !linux && !windows && !darwin

package wxkey

import "context"

func attachProcess(context.Context, int, AttachOptions) (Target, error) {
	return nil, ErrUnsupported
}
