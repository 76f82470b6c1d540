package discovery

import (
	"errors"
	"log/slog"
	"reflect"
	"slices"
	"sort"

	"github.com/vitalvas/svcdoc/swagger"
)

// Options configures a build.
type Options struct {
	// Filter holds the hidden and visible tag lists.
	Filter swagger.TagFilter

	// Settings are applied to every assembled document.
	Settings swagger.Settings

	// Inspector reads service metadata. Defaults to ReflectInspector.
	Inspector Inspector

	// Logger receives discovery warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// Record is the build record of one service.
type Record struct {
	Service ServiceInfo
	Paths   []*swagger.Path

	// Types lists every non-primitive parameter and result type, once,
	// in the order the mapper met them. It is informational: the
	// Definitions below are collected by the resolver while mapping,
	// which also covers types nested inside these.
	Types []reflect.Type

	Definitions []*swagger.Definition
}

// Scanner finds service types in the modules of a Source.
type Scanner struct {
	src       Source
	inspector Inspector
	mapper    Mapper
	filter    swagger.TagFilter
	logger    *slog.Logger
}

// NewScanner creates a scanner over src.
func NewScanner(src Source, opts Options) *Scanner {
	inspector := opts.Inspector
	if inspector == nil {
		inspector = ReflectInspector{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scanner{
		src:       src,
		inspector: inspector,
		mapper:    Mapper{Filter: opts.Filter},
		filter:    opts.Filter,
		logger:    logger,
	}
}

// Discover builds one record per visible service type. Modules that
// fail to load are logged and skipped. A service whose operations
// cannot be mapped is left out and its *MappingError is returned,
// joined with the others, next to the records that did build.
//
// Records and errors are sorted by service type so the result does not
// depend on module order.
func (s *Scanner) Discover() ([]*Record, error) {
	var records []*Record
	var failures []*MappingError
	seen := make(map[reflect.Type]bool)

	for _, mod := range s.src.Modules() {
		if mod.Platform && !slices.Contains(mod.Requires, FrameworkPath) {
			s.logger.Debug("skipping platform module", "module", mod.Path)
			continue
		}

		types, err := mod.Types()
		if err != nil {
			s.logger.Warn("skipping module", "module", mod.Path, "error", err)
			continue
		}

		for _, t := range types {
			if t == nil {
				continue
			}
			if t.Kind() == reflect.Pointer {
				t = t.Elem()
			}
			if seen[t] {
				continue
			}
			seen[t] = true

			info, ok := s.inspector.Service(t)
			if !ok {
				continue
			}
			if s.filter.IsHidden(t.Name()) || s.filter.IsHidden(info.Tags...) {
				s.logger.Debug("hiding service", "service", t.String())
				continue
			}

			rec, err := s.build(info)
			if err != nil {
				failures = append(failures, err)
				continue
			}
			records = append(records, rec)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return typeKey(records[i].Service.Type) < typeKey(records[j].Service.Type)
	})
	sort.SliceStable(failures, func(i, j int) bool {
		return typeKey(failures[i].Service) < typeKey(failures[j].Service)
	})

	errs := make([]error, len(failures))
	for i, f := range failures {
		errs[i] = f
	}
	return records, errors.Join(errs...)
}

func (s *Scanner) build(info ServiceInfo) (*Record, *MappingError) {
	members, err := s.inspector.Members(info.Type)
	if err != nil {
		return nil, asMappingError(info.Type, err)
	}

	rec := &Record{Service: info}
	resolver := swagger.NewResolver(s.filter)

	rec.Paths, err = s.mapper.Map(info, members, resolver, &rec.Types)
	if err != nil {
		return nil, asMappingError(info.Type, err)
	}
	rec.Definitions = resolver.Definitions()

	s.logger.Debug("mapped service",
		"service", info.Type.String(),
		"paths", len(rec.Paths),
		"types", len(rec.Types),
		"definitions", len(rec.Definitions),
	)
	return rec, nil
}

func asMappingError(t reflect.Type, err error) *MappingError {
	var me *MappingError
	if errors.As(err, &me) {
		return me
	}
	return &MappingError{Service: t, Err: err}
}

// typeKey is the sort key of a type: package path and name.
func typeKey(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.PkgPath() + "." + t.Name()
}
