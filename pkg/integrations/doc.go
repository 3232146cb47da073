// Package integrations provides the HTTP plumbing shared by pacstage's
// network clients.
//
// # Overview
//
// [Client] wraps an [http.Client] with response caching, retries and
// default headers. It serves two kinds of traffic:
//
//   - metadata requests (AUR RPC, .SRCINFO files) through [Client.Get],
//     [Client.GetText] and [Client.Cached]
//   - mirror traffic through [Client.Exists] (short HEAD probes) and
//     [Client.Download] (artifact transfers written atomically)
//
// The AUR client lives in the [aur] subpackage.
//
// # Errors
//
// A 404 maps to [ErrNotFound]. Connection failures and 5xx responses map to
// [ErrNetwork] wrapped in [cache.RetryableError], so [cache.RetryWithBackoff]
// retries them.
//
// [aur]: github.com/matzehuels/pacstage/pkg/integrations/aur
// [cache.RetryableError]: github.com/matzehuels/pacstage/pkg/cache.RetryableError
// [cache.RetryWithBackoff]: github.com/matzehuels/pacstage/pkg/cache.RetryWithBackoff
package integrations
