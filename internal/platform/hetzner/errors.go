package hetzner

import (
	"errors"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/mailship/mailship/internal/provision"
)

// isInvalidParameter checks if an error indicates invalid parameters.
// These errors are fatal and should not be retried.
func isInvalidParameter(err error) bool {
	return isHCloudErrorCode(err,
		hcloud.ErrorCodeNotFound,
		hcloud.ErrorCodeInvalidInput,
		hcloud.ErrorCodeInvalidServerType,
	)
}

// isHCloudErrorCode checks if the error is an hcloud API error with one of
// the given codes.
func isHCloudErrorCode(err error, codes ...hcloud.ErrorCode) bool {
	if err == nil {
		return false
	}

	var hcloudErr hcloud.Error
	if errors.As(err, &hcloudErr) {
		for _, code := range codes {
			if hcloudErr.Code == code {
				return true
			}
		}
	}
	return false
}

// wrapAPIError converts hcloud API errors to the provisioning error model
// so callers can treat both providers uniformly.
func wrapAPIError(err error) error {
	if err == nil {
		return nil
	}

	var hcloudErr hcloud.Error
	if errors.As(err, &hcloudErr) {
		return &provision.ProviderError{
			Provider:   "hetzner",
			StatusCode: statusCode(hcloudErr),
			Message:    hcloudErr.Message,
		}
	}
	return err
}

func statusCode(err hcloud.Error) int {
	if resp := err.Response(); resp != nil {
		return resp.StatusCode
	}
	return 0
}
