package jina

import "strconv"

// Header names understood by the Jina reader.
const (
	HeaderLocale            = "X-Locale"
	HeaderNoCache           = "X-No-Cache"
	HeaderProxyURL          = "X-Proxy-Url"
	HeaderRemoveSelector    = "X-Remove-Selector"
	HeaderRetainImages      = "X-Retain-Images"
	HeaderSetCookie         = "X-Set-Cookie"
	HeaderWithGeneratedAlt  = "X-With-Generated-Alt"
	HeaderWithIframe        = "X-With-Iframe"
	HeaderWithShadowDom     = "X-With-Shadow-Dom"
	HeaderWithImagesSummary = "X-With-Images-Summary"
)

// Options controls Jina reader behavior. A nil field means the matching header is not sent.
type Options struct {
	Locale         *string `yaml:"locale,omitempty"`
	NoCache        *bool   `yaml:"no_cache,omitempty"`
	ProxyURL       *string `yaml:"proxy_url,omitempty"`
	RemoveSelector *string `yaml:"remove_selector,omitempty"`
	// RetainImages is sent verbatim ("none", "all", ...), it is not a flag.
	RetainImages      *string `yaml:"retain_images,omitempty"`
	SetCookie         *string `yaml:"set_cookie,omitempty"`
	WithGeneratedAlt  *bool   `yaml:"with_generated_alt,omitempty"`
	WithIframe        *bool   `yaml:"with_iframe,omitempty"`
	WithShadowDom     *bool   `yaml:"with_shadow_dom,omitempty"`
	WithImagesSummary *bool   `yaml:"with_images_summary,omitempty"`
}

// Merge returns a copy of o where every field set in override replaces the one in o.
func (o Options) Merge(override *Options) Options {
	if override == nil {
		return o
	}
	out := o
	if override.Locale != nil {
		out.Locale = override.Locale
	}
	if override.NoCache != nil {
		out.NoCache = override.NoCache
	}
	if override.ProxyURL != nil {
		out.ProxyURL = override.ProxyURL
	}
	if override.RemoveSelector != nil {
		out.RemoveSelector = override.RemoveSelector
	}
	if override.RetainImages != nil {
		out.RetainImages = override.RetainImages
	}
	if override.SetCookie != nil {
		out.SetCookie = override.SetCookie
	}
	if override.WithGeneratedAlt != nil {
		out.WithGeneratedAlt = override.WithGeneratedAlt
	}
	if override.WithIframe != nil {
		out.WithIframe = override.WithIframe
	}
	if override.WithShadowDom != nil {
		out.WithShadowDom = override.WithShadowDom
	}
	if override.WithImagesSummary != nil {
		out.WithImagesSummary = override.WithImagesSummary
	}
	return out
}

func (o Options) headers() map[string]string {
	h := map[string]string{}
	putString(h, HeaderLocale, o.Locale)
	putBool(h, HeaderNoCache, o.NoCache)
	putString(h, HeaderProxyURL, o.ProxyURL)
	putString(h, HeaderRemoveSelector, o.RemoveSelector)
	putString(h, HeaderRetainImages, o.RetainImages)
	putString(h, HeaderSetCookie, o.SetCookie)
	putBool(h, HeaderWithGeneratedAlt, o.WithGeneratedAlt)
	putBool(h, HeaderWithIframe, o.WithIframe)
	putBool(h, HeaderWithShadowDom, o.WithShadowDom)
	putBool(h, HeaderWithImagesSummary, o.WithImagesSummary)
	return h
}

func putString(h map[string]string, name string, v *string) {
	if v != nil {
		h[name] = *v
	}
}

func putBool(h map[string]string, name string, v *bool) {
	if v != nil {
		h[name] = strconv.FormatBool(*v)
	}
}

func String(v string) *string { return &v }

func Bool(v bool) *bool { return &v }
