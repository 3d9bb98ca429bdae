// Package device classifies the host into PC, tablet or mobile.
//
// The layout engine only consumes the boolean Facts; where they come from is up
// to the host. ParseUserAgent derives them from a browser user agent string and
// UAClassifier memoises that work per user agent.
package device

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/zjrosen/relayout/internal/log"
	"github.com/zjrosen/relayout/internal/memo"
)

// Class is the coarse device category.
type Class int

const (
	PC Class = iota
	Tablet
	Mobile
)

func (c Class) String() string {
	switch c {
	case PC:
		return "pc"
	case Tablet:
		return "tablet"
	case Mobile:
		return "mobile"
	default:
		return "unknown"
	}
}

// ParseClass maps "pc", "tablet" or "mobile" to a Class.
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pc", "desktop":
		return PC, nil
	case "tablet":
		return Tablet, nil
	case "mobile", "phone":
		return Mobile, nil
	default:
		return PC, fmt.Errorf("unknown device class %q", s)
	}
}

// Facts are the booleans a classifier reports.
type Facts struct {
	IsUC                 bool `json:"is_uc"`
	IsSafari             bool `json:"is_safari"`
	IsOpera              bool `json:"is_opera"`
	IsTencent            bool `json:"is_tencent"`
	IsTencentMiniProgram bool `json:"is_tencent_mini_program"`
	IsIOS                bool `json:"is_ios"`
	IsAndroid            bool `json:"is_android"`
	IsWindowsPhone       bool `json:"is_windows_phone"`
	IsIPad               bool `json:"is_ipad"`
	IsIPhone             bool `json:"is_iphone"`
	IsTablet             bool `json:"is_tablet"`
	IsMobile             bool `json:"is_mobile"`
	IsPC                 bool `json:"is_pc"`
}

// Class picks PC over tablet over mobile.
func (f Facts) Class() Class {
	switch {
	case f.IsPC:
		return PC
	case f.IsTablet:
		return Tablet
	default:
		return Mobile
	}
}

// Classifier reports the current device facts. Implementations may recompute
// on every call.
type Classifier interface {
	Classify() Facts
}

// Static is a Classifier that always reports one class.
type Static Class

// Classify implements Classifier.
func (s Static) Classify() Facts {
	switch Class(s) {
	case Tablet:
		return Facts{IsTablet: true}
	case Mobile:
		return Facts{IsMobile: true}
	default:
		return Facts{IsPC: true}
	}
}

var (
	reUC       = regexp.MustCompile(`(?:UCWEB|UCBrowser)`)
	reSafari   = regexp.MustCompile(`(?:Safari)`)
	reOpera    = regexp.MustCompile(`(?:Opera Mini)`)
	reTencent  = regexp.MustCompile(`(?:MQQBrowser|QQ|MicroMessenger)`)
	reMiniProg = regexp.MustCompile(`(?i)(?:miniprogram)`)
	reIOS      = regexp.MustCompile(`(?:Mac OS)`)
	reAndroid  = regexp.MustCompile(`(?:Android)`)
	reWinPhone = regexp.MustCompile(`(?:Windows Phone)`)
	reIPad     = regexp.MustCompile(`(?:iPad)`)
	reIPhone   = regexp.MustCompile(`(?:iPhone)`)
	reTablet   = regexp.MustCompile(`(?:Tablet|PlayBook)`)
	reMobile   = regexp.MustCompile(`(?:Mobile)`)
)

// ParseUserAgent derives Facts from a user agent string.
func ParseUserAgent(ua string) Facts {
	var f Facts
	f.IsUC = reUC.MatchString(ua)
	f.IsSafari = reSafari.MatchString(ua)
	f.IsOpera = reOpera.MatchString(ua)
	f.IsTencent = reTencent.MatchString(ua)
	f.IsTencentMiniProgram = f.IsTencent && reMiniProg.MatchString(ua)

	f.IsIOS = reIOS.MatchString(ua)
	f.IsAndroid = reAndroid.MatchString(ua)
	f.IsWindowsPhone = reWinPhone.MatchString(ua)

	f.IsIPad = f.IsIOS && reIPad.MatchString(ua)
	f.IsIPhone = f.IsIOS && reIPhone.MatchString(ua)

	f.IsTablet = reTablet.MatchString(ua) || f.IsIPad
	f.IsMobile = (reMobile.MatchString(ua) && !f.IsIPad) || f.IsWindowsPhone
	f.IsPC = !f.IsMobile && !f.IsTablet
	return f
}

const uaCacheTTL = time.Hour

// UAClassifier classifies a user agent that can change over time, for example
// when a host reports a new one after an emulation toggle.
type UAClassifier struct {
	mu    sync.Mutex
	ua    func() string
	memo  *memo.Memo[Facts]
	facts Facts
}

// NewUAClassifier creates a classifier reading the user agent from ua.
func NewUAClassifier(ua func() string) *UAClassifier {
	c := &UAClassifier{
		ua: ua,
		memo: memo.New("user-agent", uaCacheTTL, func(ua string) Facts {
			f := ParseUserAgent(ua)
			log.Debug(log.CatDevice, "classified user agent", "class", f.Class(), "ua", ua)
			return f
		}),
	}
	c.Refresh()
	return c
}

// Refresh re-reads the user agent and recomputes the facts.
func (c *UAClassifier) Refresh() Facts {
	f := c.memo.Get(c.ua())

	c.mu.Lock()
	c.facts = f
	c.mu.Unlock()
	return f
}

// Classify implements Classifier. It refreshes on every call so a changed user
// agent is picked up by the next dispatch.
func (c *UAClassifier) Classify() Facts {
	return c.Refresh()
}

// Last returns the facts computed by the most recent Refresh.
func (c *UAClassifier) Last() Facts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.facts
}

// CacheStats reports how often classification was served from the memo.
func (c *UAClassifier) CacheStats() memo.Stats {
	return c.memo.Stats()
}
