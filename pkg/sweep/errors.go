package sweep

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// Error taxonomy for the sweep. Per-resource failures are classified,
// logged, and skipped; only ErrAuthenticationRequired halts the run.
var (
	ErrAuthenticationRequired = errors.New("no active Azure session")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrAssetNotFound          = errors.New("referenced asset does not exist")
	ErrRemoteExecution        = errors.New("remote job execution failed")
	ErrRemoteTimeout          = errors.New("remote job did not reach a terminal state in time")
	ErrDecryption             = errors.New("could not decrypt job output")
)

// Classify maps an Azure SDK error onto the sweep taxonomy. Errors that
// do not match a known condition are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrAuthenticationRequired, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrAssetNotFound, err)
		}
	}
	return err
}

// IsPermissionDenied reports whether err is a per-resource access
// denial that a policy grant could resolve.
func IsPermissionDenied(err error) bool {
	return errors.Is(Classify(err), ErrPermissionDenied)
}
