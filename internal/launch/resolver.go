package launch

import (
	"net/url"
	"strconv"
	"strings"

	initdata "github.com/telegram-mini-apps/init-data-golang"
)

const refPrefix = "refID"

// Launch is the normalized launch context: who opened the Mini App and
// which referrer candidate, if any, came with it.
type Launch struct {
	User       *initdata.User
	ReferrerID string
}

// Resolve extracts the launch context from the page query string and the raw
// init data blob. It never fails; anything unparseable leaves the field empty.
// Signature validation is the auth middleware's job, not the resolver's.
func Resolve(query url.Values, rawInitData string) Launch {
	var out Launch

	data, err := initdata.Parse(rawInitData)
	if err == nil && data.User.ID != 0 {
		u := data.User
		out.User = &u
	}

	startParam := query.Get("tgWebAppStartParam")
	if startParam == "" && err == nil {
		startParam = data.StartParam
	}

	ref := query.Get("referrer")
	if ref == "" {
		ref = ReferrerFromStartParam(startParam)
	}
	if ref == "" && out.User != nil {
		// Historical behavior: with no explicit referrer the launcher's own
		// id is carried as the candidate. The attribution service is the
		// safety net that drops it as a self referral.
		ref = strconv.FormatInt(out.User.ID, 10)
	}
	out.ReferrerID = ref

	return out
}

// ReferrerFromStartParam extracts a referrer id from a bot start parameter,
// either "refID123456" or a bare numeric id.
func ReferrerFromStartParam(param string) string {
	param = strings.TrimSpace(param)
	if param == "" {
		return ""
	}
	id := strings.TrimPrefix(param, refPrefix)
	if !isDigits(id) {
		return ""
	}
	return id
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
