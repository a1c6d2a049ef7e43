package config

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
)

func init() {
	// Report problems under the configuration keys users actually write.
	validation.ErrorTag = "yaml"
}

// Validate checks a defaulted configuration. Any failure is a configuration
// error carrying the per-field messages.
func Validate(cfg *Config) error {
	err := validation.ValidateStruct(cfg,
		validation.Field(&cfg.InputDirectory, validation.Required),
		validation.Field(&cfg.OutputDirectory, validation.Required, validation.By(distinctFrom(cfg.InputDirectory))),
		validation.Field(&cfg.LayoutsDirectory, validation.Required),
		validation.Field(&cfg.Permalink, validation.Required, validation.By(rootedURLPath)),
		validation.Field(&cfg.TemplateFormats, validation.Required, validation.Each(validation.Required, validation.By(bareExtension))),
		validation.Field(&cfg.Workers, validation.Min(1)),
		validation.Field(&cfg.Passthrough),
		validation.Field(&cfg.MarkdownExtensions),
		validation.Field(&cfg.Feeds, validation.By(uniqueFeedPaths)),
		validation.Field(&cfg.Site),
		validation.Field(&cfg.Collections),
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid configuration").
			Fatal().
			UserAction().
			Build()
	}
	return nil
}

// Validate implements validation.Validatable.
func (r PassthroughRule) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.Required, validation.By(relativePath)),
		validation.Field(&r.To, validation.By(relativePath)),
	)
}

// Validate implements validation.Validatable.
func (e ExtensionConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required),
		validation.Field(&e.Options, validation.By(func(any) error {
			if e.Name != "syntax-highlight" {
				return nil
			}
			style := e.String("style", "")
			if style == "" {
				return nil
			}
			if _, ok := styles.Registry[strings.ToLower(style)]; !ok {
				return validation.NewError("validation_unknown_style", fmt.Sprintf("unknown highlight style %q", style))
			}
			return nil
		})),
	)
}

// Validate implements validation.Validatable.
func (f FeedConfig) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required),
		validation.Field(&f.Collection, validation.Required),
		validation.Field(&f.Limit, validation.Min(1)),
		validation.Field(&f.URL, validation.By(absoluteURL)),
		validation.Field(&f.RSSPath, validation.By(relativePath)),
		validation.Field(&f.AtomPath, validation.By(relativePath)),
	)
}

// Validate implements validation.Validatable.
func (s SiteConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.URL, validation.By(absoluteURL)),
	)
}

// Validate implements validation.Validatable.
func (s SortSpec) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.By, validation.Required, validation.In("date", "title", "path")),
	)
}

func distinctFrom(other string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if filepath.Clean(s) == filepath.Clean(other) {
			return validation.NewError("validation_same_directory", "must differ from input_directory")
		}
		return nil
	}
}

func rootedURLPath(value any) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, "/") {
		return validation.NewError("validation_permalink", "must start with /")
	}
	return nil
}

func bareExtension(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, `/\`) {
		return validation.NewError("validation_extension", "must be a bare file extension")
	}
	return nil
}

func relativePath(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if filepath.IsAbs(s) || path.IsAbs(s) {
		return validation.NewError("validation_relative_path", "must be a relative path")
	}
	for _, part := range strings.Split(filepath.ToSlash(s), "/") {
		if part == ".." {
			return validation.NewError("validation_relative_path", "must not leave its root")
		}
	}
	return nil
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return validation.NewError("validation_url", "must be an absolute URL")
	}
	return nil
}

func uniqueFeedPaths(value any) error {
	feeds, _ := value.([]FeedConfig)
	seen := make(map[string]string)
	for _, f := range feeds {
		for _, p := range []string{f.RSSPath, f.AtomPath} {
			if p == "" {
				continue
			}
			key := path.Clean(filepath.ToSlash(p))
			if prev, ok := seen[key]; ok {
				return validation.NewError("validation_feed_path", fmt.Sprintf("feeds %q and %q both write %s", prev, f.Title, key))
			}
			seen[key] = f.Title
		}
	}
	return nil
}
