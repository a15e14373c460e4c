package notify

import (
	stderrors "errors"
	"net/url"
)

// stripURL unwraps *url.Error so the request URL (and the token in it) is not
// repeated in logs.
func stripURL(err error) error {
	var urlErr *url.Error
	if stderrors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
