package pipeline

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ppiankov/credence/internal/authenticity"
	"github.com/ppiankov/credence/internal/cache"
	"github.com/ppiankov/credence/internal/llm"
	"github.com/ppiankov/credence/internal/media"
	"github.com/ppiankov/credence/internal/mediacontext"
	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/score"
	"github.com/ppiankov/credence/internal/source"
	"github.com/ppiankov/credence/internal/tone"
	"github.com/ppiankov/credence/internal/util"
)

// Build wires every producer and service described by cfg into an Analyzer.
// Missing reference data files fall back to built-in behavior with a
// warning; unknown providers and invalid fusion settings are fatal.
func Build(cfg *model.Config, logger *slog.Logger, opts ...Option) (*Analyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine, err := score.NewEngineFromConfig(cfg.Fusion)
	if err != nil {
		return nil, err
	}

	c := cache.New(cfg.Cache)
	client := util.NewHTTPClient(cfg.HTTP.Timeout, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)

	threat, err := buildThreatChecker(cfg, client, c, logger)
	if err != nil {
		return nil, err
	}

	describer, err := llm.NewDescriber(llm.ConfigFromModel(cfg.Context.Describer, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("%w: caption provider: %v", model.ErrInvalidConfig, err)
	}
	if _, offline := describer.(llm.OfflineDescriber); !offline {
		describer = llm.NewCachedDescriber(describer, c, cfg.Cache.DiskTTL)
	}

	resolver := media.NewResolver(media.Options{
		Dir:         cfg.Context.MediaDir,
		FetchRemote: cfg.Context.FetchRemote,
		MaxBytes:    cfg.HTTP.MaxBodyBytes,
		UserAgent:   cfg.HTTP.UserAgent,
		HTTPClient:  client,
		Robots:      util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout, client),
	})

	producers := []Producer{
		source.NewProvider(loadTable(cfg.Source.ReputationFile, logger), threat, cfg.Source.Threat.Timeout),
		tone.NewAnalyzer(),
		mediacontext.NewVerifier(describer, resolver, loadReuse(cfg.Context.ReuseFile, logger), cfg.Context.Describer.Timeout),
		authenticity.NewDetector(loadStrategy(cfg.Authenticity.ListFile, logger)),
	}

	logger.Debug("analyzer built",
		"threat_provider", cfg.Source.Threat.Provider,
		"caption_provider", describer.Name(),
		"media_dir", cfg.Context.MediaDir,
	)

	return NewAnalyzer(engine, producers, append([]Option{WithLogger(logger)}, opts...)...)
}

// NewFetcherFromConfig creates the source-page fetcher used for claim enrichment
func NewFetcherFromConfig(cfg *model.Config) *Fetcher {
	return NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, true,
		cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
}

func buildThreatChecker(cfg *model.Config, client *http.Client, c cache.Cache, logger *slog.Logger) (source.ThreatChecker, error) {
	t := cfg.Source.Threat

	var checker source.ThreatChecker
	switch strings.ToLower(t.Provider) {
	case "", "none":
		return source.NoopThreatChecker{}, nil
	case "static":
		if t.BlocklistFile == "" {
			return nil, fmt.Errorf("%w: static threat provider requires source.threat.blocklist_file", model.ErrInvalidConfig)
		}
		list, err := source.LoadStaticThreatList(t.BlocklistFile)
		if err != nil {
			logger.Warn("threat blocklist unavailable, threat checks disabled", "file", t.BlocklistFile, "error", err)
			return source.NoopThreatChecker{}, nil
		}
		return list, nil
	case "safebrowsing":
		sb, err := source.NewSafeBrowsingClient(t.APIKey, t.BaseURL, client)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidConfig, err)
		}
		checker = sb
	default:
		return nil, fmt.Errorf("%w: unknown threat provider %q (supported: none, static, safebrowsing)", model.ErrInvalidConfig, t.Provider)
	}

	return source.NewCachedThreatChecker(checker, c, cfg.Cache.MemoryTTL), nil
}

func loadTable(path string, logger *slog.Logger) *source.Table {
	if path == "" {
		return source.DefaultTable()
	}
	t, err := source.LoadTable(path)
	if err != nil {
		logger.Warn("reputation table unavailable, using built-in table", "file", path, "error", err)
		return source.DefaultTable()
	}
	return t
}

func loadReuse(path string, logger *slog.Logger) *mediacontext.ReuseIndex {
	if path == "" {
		return nil
	}
	idx, err := mediacontext.LoadReuseIndex(path)
	if err != nil {
		logger.Warn("reuse index unavailable, using name heuristics only", "file", path, "error", err)
		return nil
	}
	return idx
}

func loadStrategy(path string, logger *slog.Logger) authenticity.Strategy {
	if path == "" {
		return authenticity.KeywordStrategy{}
	}
	list, err := authenticity.LoadListStrategy(path)
	if err != nil {
		logger.Warn("authenticity list unavailable, using keyword strategy", "file", path, "error", err)
		return authenticity.KeywordStrategy{}
	}
	return authenticity.ChainStrategy{list, authenticity.KeywordStrategy{}}
}
