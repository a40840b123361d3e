package runner

import (
	"github.com/bakkerme/curator-crawler/internal/config"
	"github.com/bakkerme/curator-crawler/internal/crawler"
	"github.com/bakkerme/curator-crawler/internal/dedupe"
	"github.com/bakkerme/curator-crawler/internal/filter"
	"github.com/bakkerme/curator-crawler/internal/outputs"
	"github.com/bakkerme/curator-crawler/internal/sources/rss"
	"github.com/bakkerme/curator-crawler/internal/trigger"
)

const excerptRunes = 280

// Job is a fully wired crawl job. Optional parts may be nil.
type Job struct {
	Name       string
	Targets    []string
	Feeds      []config.FeedSource
	Crawler    crawler.Crawler
	FeedReader rss.Fetcher
	Filter     *filter.Rule
	Seen       dedupe.SeenStore
	RenderHTML bool
	Outputs    []outputs.Output
	Trigger    *trigger.Cron
}
