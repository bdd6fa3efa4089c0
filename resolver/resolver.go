// Package resolver implements Node's CommonJS/ESM module resolution
// algorithm: require(X) from module at Y, including the
// conditional exports/imports maps and a shared, monotone node_modules
// path cache.
package resolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNotFound is returned when X cannot be resolved from Y by any of the
// LOAD_* steps.
var ErrNotFound = errors.New("resolver: module not found")

// CJSLoaderPrefix marks a resolved path that an ESM importer must hand to
// the CommonJS evaluator rather than its own loader.
const CJSLoaderPrefix = "\x00cjs:"

// supportedExtensions is the fixed extension order LOAD_AS_FILE/LOAD_INDEX
// try after an exact-file match fails.
var supportedExtensions = []string{".js", ".mjs", ".cjs", ".json", ".node"}

// jsExtensions is the narrower extension order used when correcting an
// exports/imports target and when probing package "main".
var jsExtensions = []string{".js", ".mjs", ".cjs"}

func isSupportedExt(ext string) bool {
	for _, e := range supportedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// FS is the filesystem collaborator: ordinary blocking
// read/stat/readlink/is-file. Tests supply a fake; production code uses
// OSFileSystem.
type FS interface {
	ReadFile(path string) ([]byte, error)
	IsFile(path string) bool
	IsDir(path string) bool
	Readlink(path string) (string, bool)
	HomeNodeModulesDirs() []string
}

// Platform selects the exports/imports condition checked ahead of
// "import"/"require"; the platform-specific condition wins over the
// generic ones.
type Platform string

// Resolver resolves module specifiers against an FS and a shared
// node_modules path cache.
type Resolver struct {
	fs       FS
	platform Platform
	cache    *PathCache
}

// New returns a Resolver backed by fs, reporting condition name platform
// (e.g. "node") for exports/imports platform-specific branches.
func New(fs FS, platform Platform) *Resolver {
	return &Resolver{fs: fs, platform: platform, cache: NewPathCache()}
}

// Resolve implements require(X) from module at path Y. hook, if non-nil,
// is consulted first and used verbatim if it returns a path (e.g. a
// bytecode cache).
func (r *Resolver) Resolve(x, y string, isESM bool, hook func(x, y string) (string, bool)) (string, error) {
	x = strings.TrimPrefix(x, "file://")

	if target, ok := r.fs.Readlink(y); ok {
		if filepath.IsAbs(target) {
			y = target
		} else {
			y = filepath.Join(y, "..", target)
		}
	}

	if hook != nil {
		if path, ok := hook(x, y); ok {
			return path, nil
		}
	}

	ext := filepath.Ext(x)
	supported := isSupportedExt(ext)
	xIsAbs := filepath.IsAbs(x)
	xStartsCurrentDir := strings.HasPrefix(x, "./")
	xStartsParentDir := strings.HasPrefix(x, "..")

	if supported && r.fs.IsFile(x) {
		return r.toAbsPath(x), nil
	}
	xNorm := filepath.Clean(x)
	if !xStartsParentDir && supported && r.fs.IsFile(xNorm) {
		return r.toAbsPath(xNorm), nil
	}

	base := y
	if xIsAbs {
		base = string(filepath.Separator)
	}

	var dirnameY string
	if r.fs.IsDir(base) {
		dirnameY = filepath.Clean(base)
	} else {
		dirnameY = filepath.Clean(filepath.Dir(base))
	}

	if xStartsCurrentDir || xIsAbs || xStartsParentDir {
		var yPlusX string
		switch {
		case xIsAbs:
			yPlusX = x
		case xStartsCurrentDir:
			yPlusX = filepath.Join(dirnameY, x[2:])
		default:
			yPlusX = filepath.Join(dirnameY, x)
		}

		if path, ok := r.loadAsFile(yPlusX); ok {
			return r.toAbsPath(path), nil
		}
		if path, ok := r.loadAsDirectory(yPlusX); ok {
			return r.toAbsPath(path), nil
		}
		return "", fmt.Errorf("%w: cannot find %q from %q", ErrNotFound, x, base)
	}

	if strings.HasPrefix(x, "#") {
		if path, ok := r.loadPackageImports(x, dirnameY); ok {
			return path, nil
		}
	}

	if path, ok := r.loadPackageSelf(x, dirnameY, isESM); ok {
		return r.toAbsPath(path), nil
	}

	if path, ok := r.loadNodeModules(x, dirnameY, isESM); ok {
		return path, nil
	}

	if path, ok := r.loadAsFile(x); ok {
		return r.toAbsPath(path), nil
	}

	return "", fmt.Errorf("%w: cannot find %q from %q", ErrNotFound, x, base)
}

func (r *Resolver) toAbsPath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// loadAsFile implements LOAD_AS_FILE(X).
func (r *Resolver) loadAsFile(x string) (string, bool) {
	if r.fs.IsFile(x) {
		return x, true
	}

	for _, ext := range supportedExtensions {
		candidate := x + ext
		if !r.fs.IsFile(candidate) {
			continue
		}
		if scope, ok := r.findClosestPackageScope(x); ok {
			if typ, ok := r.packageField(scope, "type"); ok {
				if typ == "module" || typ == "commonjs" {
					return candidate, true
				}
			}
		}
		return candidate, true
	}

	jsonCandidate := x + ".json"
	if r.fs.IsFile(jsonCandidate) {
		return jsonCandidate, true
	}
	return "", false
}

// loadIndex implements LOAD_INDEX(X).
func (r *Resolver) loadIndex(x string) (string, bool) {
	base := x + "/index"
	for _, ext := range supportedExtensions {
		candidate := base + ext
		if !r.fs.IsFile(candidate) {
			continue
		}
		return candidate, true
	}
	if candidate := base + ".json"; r.fs.IsFile(candidate) {
		return candidate, true
	}
	return "", false
}

// loadAsDirectory implements LOAD_AS_DIRECTORY(X).
func (r *Resolver) loadAsDirectory(x string) (string, bool) {
	pkgPath := x + "/package.json"
	if r.fs.IsFile(pkgPath) {
		if main, ok := r.packageField(pkgPath, "main"); ok && main != "" {
			m := x + "/" + main
			if path, ok := r.loadAsFile(m); ok {
				return path, true
			}
			if path, ok := r.loadIndex(m); ok {
				return path, true
			}
			return "", false
		}
	}
	return r.loadIndex(x)
}

// loadNodeModules implements LOAD_NODE_MODULES(X, START), consulting the
// shared path cache.
func (r *Resolver) loadNodeModules(x, start string, isESM bool) (string, bool) {
	searchDir := func(dir string) (string, bool) {
		if path, ok := r.loadPackageExports(x, dir, isESM); ok {
			return path, true
		}
		dirSlashX := dir + "/" + x
		if path, ok := r.loadAsFile(dirSlashX); ok {
			return path, true
		}
		if path, ok := r.loadAsDirectory(dirSlashX); ok {
			return path, true
		}
		return "", false
	}

	for _, dir := range r.cache.dirsFor(start, r.fs) {
		if path, ok := searchDir(dir); ok {
			return path, true
		}
	}
	for _, dir := range r.fs.HomeNodeModulesDirs() {
		if path, ok := searchDir(dir); ok {
			return path, true
		}
	}
	return "", false
}

// loadPackageImports implements LOAD_PACKAGE_IMPORTS(X, DIR).
func (r *Resolver) loadPackageImports(x, dir string) (string, bool) {
	scope, ok := r.findClosestPackageScope(dir)
	if !ok {
		return "", false
	}
	pkg, ok := r.readPackageJSON(scope)
	if !ok {
		return "", false
	}
	target, ok := r.packageImportsResolve(pkg, x)
	if !ok {
		return "", false
	}
	base := strings.TrimSuffix(scope, "package.json")
	return r.toAbsPath(correctExtensions(r.fs, base+target)), true
}

// loadPackageExports implements LOAD_PACKAGE_EXPORTS(X, DIR).
func (r *Resolver) loadPackageExports(x, dir string, isESM bool) (string, bool) {
	n := 1
	name, scope, isLast := getNameAndScope(x, n)

	base := dir + "/"
	var pkgPath string
	var pkgExists bool
	for {
		pkgPath = base + scope + "/package.json"
		pkgExists = r.fs.IsFile(pkgPath)
		if pkgExists || isLast {
			break
		}
		n++
		name, scope, isLast = getNameAndScope(x, n)
	}

	var subModule string
	var haveSubModule bool
	if name != "." && !pkgExists {
		pkgPath = base + x + "/package.json"
		if !r.fs.IsFile(pkgPath) {
			return "", false
		}
		scope, name = x, "."
	} else {
		trimmedName := strings.TrimPrefix(name, ".")
		path := base + scope
		if trimmedName != "" {
			path += "/" + trimmedName
		}
		for _, ext := range jsExtensions {
			candidate := path + ext
			if r.fs.IsFile(candidate) {
				if ext == ".mjs" {
					return candidate, true
				}
				subModule, haveSubModule = candidate, true
				break
			}
		}
	}

	pkg, ok := r.readPackageJSON(pkgPath)
	if !ok {
		return "", false
	}

	if haveSubModule {
		typ, _ := stringField(pkg, "type")
		if typ != "module" {
			abs := r.toAbsPath(subModule)
			if isESM {
				return CJSLoaderPrefix + abs, true
			}
			return abs, true
		}
		return subModule, true
	}

	modulePath, resolvePath, isCJS, ok := r.packageExportsResolve(pkg, name, isESM)
	if !ok {
		return "", false
	}
	finalPath := modulePath
	if resolvePath != "" {
		finalPath = resolvePath
	}
	abs := r.toAbsPath(correctExtensions(r.fs, dir+"/"+scope+"/"+finalPath))
	if isCJS && isESM {
		return CJSLoaderPrefix + abs, true
	}
	return abs, true
}

// loadPackageSelf implements LOAD_PACKAGE_SELF(X, DIR).
func (r *Resolver) loadPackageSelf(x, dir string, isESM bool) (string, bool) {
	n := 1
	name, scope, isLast := getNameAndScope(x, n)

	pkgPath, ok := r.findClosestPackageScope(dir)
	if !ok {
		return "", false
	}
	pkg, ok := r.readPackageJSON(pkgPath)
	if !ok {
		return "", false
	}

	for {
		if hasExportsField(pkg) {
			if pkgName, ok := stringField(pkg, "name"); ok && pkgName == scope {
				break
			}
		}
		if isLast {
			return "", false
		}
		n++
		name, scope, isLast = getNameAndScope(x, n)
	}

	modulePath, resolvePath, _, ok := r.packageExportsResolve(pkg, name, isESM)
	if !ok {
		return "", false
	}
	finalPath := modulePath
	if resolvePath != "" {
		finalPath = resolvePath
	}
	base := strings.TrimSuffix(pkgPath, "package.json")
	return correctExtensions(r.fs, base+finalPath), true
}

// getNameAndScope splits x into (name, scope, isLast) by walking back n
// slashes, mirroring get_name_and_scope: n=1 peels the final path segment
// off as name, leaving the rest as scope (handles @scope/pkg/sub paths).
func getNameAndScope(x string, n int) (name, scope string, isLast bool) {
	pos := len(x)
	for i := 0; i < n; i++ {
		idx := strings.LastIndexByte(x[:pos], '/')
		if idx < 0 {
			return ".", x, true
		}
		pos = idx
	}
	return x[pos+1:], x[:pos], false
}

// packageExportsResolve implements PACKAGE_EXPORTS_RESOLVE + RESOLVE_ESM_MATCH,
// applying the tie-break order: exact match over wildcard; within a match,
// platform-specific over import/require over default.
func (r *Resolver) packageExportsResolve(pkg map[string]any, modulesName string, isESM bool) (target string, resolvedWildcard string, isCJS bool, ok bool) {
	ident := "require"
	if isESM {
		ident = "import"
	}

	name := modulesName
	if name != "." {
		name = "./" + name
	}

	// A wildcard candidate only exists when name has a scope to peel a
	// trailing segment off (at least two slashes, e.g. "./features/foo"
	// peels to scope "./features" + the literal "/*" exports key).
	var wildcardName, wildcardScope string
	haveWildcard := strings.Count(name, "/") >= 2
	if haveWildcard {
		wn, ws, _ := getNameAndScope(name, 1)
		wildcardName, wildcardScope = wn, ws+"/*"
	}

	isCJS = stringFieldNot(pkg, "type", "module")

	// A bare "exports": "./index.js" is shorthand for exports["."]; this
	// and the plain-string leaf forms below (e.g. "./features/*": "./lib/*.js",
	// without a nested conditions object) are common package.json shapes
	// not reachable through the original's object-only branches.
	switch exportsField := pkg["exports"].(type) {
	case string:
		if name == "." {
			return exportsField, "", isCJS, true
		}
	case map[string]any:
		if entry, ok := exportsField[name]; ok {
			if t, ok := resolveExportsEntry(entry, r.platform, ident); ok {
				return t, "", isCJS, true
			}
		}
		if haveWildcard {
			if entry, ok := exportsField[wildcardScope]; ok {
				if t, ok := resolveExportsEntry(entry, r.platform, ident); ok {
					return t, replaceStar(t, wildcardName), isCJS, true
				}
			}
		}
		if entry, ok := exportsField[ident].(map[string]any); ok {
			if def, ok := entry["default"].(string); ok {
				return def, "", isCJS, true
			}
		}
		if s, ok := exportsField[ident].(string); ok {
			return s, "", isCJS, true
		}
		if !isESM {
			if def, ok := exportsField["default"].(string); ok {
				return def, "", isCJS, true
			}
		}
	}

	if platform, ok := pkg[string(r.platform)].(string); ok {
		return platform, "", isCJS, true
	}
	if isESM {
		if module, ok := pkg["module"].(string); ok {
			return module, "", isCJS, true
		}
	}
	if main, ok := pkg["main"].(string); ok {
		return main, "", isCJS, true
	}

	return "./index.js", "", true, true
}

// resolveExportsEntry resolves one exports-map leaf, which is either a bare
// string target or a conditions object resolved via conditionLookup.
func resolveExportsEntry(entry any, platform Platform, ident string) (string, bool) {
	switch e := entry.(type) {
	case string:
		return e, true
	case map[string]any:
		return conditionLookup(e, platform, ident)
	default:
		return "", false
	}
}

// conditionLookup checks, in priority order, name->platform->ident,
// name->ident->default, name->platform, name->ident, name->default.
func conditionLookup(entry map[string]any, platform Platform, ident string) (string, bool) {
	if platformMap, ok := entry[string(platform)].(map[string]any); ok {
		if s, ok := platformMap[ident].(string); ok {
			return s, true
		}
	}
	if identMap, ok := entry[ident].(map[string]any); ok {
		if s, ok := identMap["default"].(string); ok {
			return s, true
		}
	}
	if s, ok := entry[string(platform)].(string); ok {
		return s, true
	}
	if s, ok := entry[ident].(string); ok {
		return s, true
	}
	if s, ok := entry["default"].(string); ok {
		return s, true
	}
	return "", false
}

func replaceStar(target, name string) string {
	return strings.ReplaceAll(target, "*", name)
}

// packageImportsResolve implements PACKAGE_IMPORTS_RESOLVE for a single
// "#foo" specifier, condition priority platform > require > module-sync >
// default.
func (r *Resolver) packageImportsResolve(pkg map[string]any, modulesName string) (string, bool) {
	importsField, ok := pkg["imports"].(map[string]any)
	if !ok {
		return "", false
	}
	if entry, ok := importsField[modulesName].(map[string]any); ok {
		if s, ok := entry[string(r.platform)].(string); ok {
			return s, true
		}
		if s, ok := entry["require"].(string); ok {
			return s, true
		}
		if s, ok := entry["module-sync"].(string); ok {
			return s, true
		}
		if s, ok := entry["default"].(string); ok {
			return s, true
		}
	}
	if s, ok := importsField[modulesName].(string); ok {
		return s, true
	}
	return "", false
}

func (r *Resolver) findClosestPackageScope(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, "package.json")
		if r.fs.IsFile(candidate) {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func (r *Resolver) readPackageJSON(path string) (map[string]any, bool) {
	data, err := r.fs.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var pkg map[string]any
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, false
	}
	return pkg, true
}

func (r *Resolver) packageField(path, field string) (string, bool) {
	pkg, ok := r.readPackageJSON(path)
	if !ok {
		return "", false
	}
	return stringField(pkg, field)
}

func stringField(pkg map[string]any, field string) (string, bool) {
	s, ok := pkg[field].(string)
	return s, ok
}

func stringFieldNot(pkg map[string]any, field, value string) bool {
	s, ok := stringField(pkg, field)
	return !(ok && s == value)
}

func hasExportsField(pkg map[string]any) bool {
	_, ok := pkg["exports"].(map[string]any)
	return ok
}

// correctExtensions mirrors the original's final extension-repair step: if
// x is already a file, use it verbatim; if it's a directory, probe
// "/index"+ext; otherwise probe x+ext, falling back to x unchanged.
func correctExtensions(fs FS, x string) string {
	if fs.IsFile(x) {
		return x
	}
	base := x
	if fs.IsDir(x) {
		base = x + "/index"
	}
	for _, ext := range jsExtensions {
		candidate := base + ext
		if fs.IsFile(candidate) {
			return candidate
		}
	}
	return x
}

// PathCache is the shared node_modules directory-candidate cache used by
// the upward LOAD_NODE_MODULES walk. Entries for
// directories known to have no node_modules above them share a single nil
// sentinel; directories with candidates share a single backing slice with
// every other directory on the same walked chain, so memory stays linear
// in path length over the process lifetime.
type PathCache struct {
	mu      sync.Mutex
	entries map[string]*nodePathList
}

type nodePathList struct {
	dirs []string
}

// NewPathCache returns an empty PathCache.
func NewPathCache() *PathCache {
	return &PathCache{entries: map[string]*nodePathList{}}
}

// dirsFor returns the node_modules candidates reachable by walking up from
// start, consulting and then populating the cache exactly as LOAD_NODE_MODULES
// does: entries at or below the last directory with a hit share one slice;
// everything above gets the "none above here" sentinel, one entry at a
// time, stopping at the first directory that already has a cache entry.
func (c *PathCache) dirsFor(start string, fs FS) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if npl, ok := c.entries[start]; ok {
		if npl == nil {
			return nil
		}
		return npl.dirs
	}

	shared := &nodePathList{}
	var pathsToCache []string
	current := start
	i := 0
	lastFoundIndex := 0

	for current != "" {
		if npl, ok := c.entries[current]; ok {
			if npl != nil {
				shared.dirs = append(shared.dirs, npl.dirs...)
			}
			lastFoundIndex = i
			break
		}
		if filepath.Base(current) != "node_modules" {
			nm := filepath.Join(current, "node_modules")
			if fs.IsDir(nm) {
				lastFoundIndex = i
				shared.dirs = append(shared.dirs, nm)
			}
		}
		pathsToCache = append(pathsToCache, current)
		parent := filepath.Dir(current)
		if parent == current {
			current = ""
		} else {
			current = parent
		}
		i++
	}

	for idx, dir := range pathsToCache {
		if idx <= lastFoundIndex {
			c.entries[dir] = shared
		} else {
			c.entries[dir] = nil
		}
	}

	return shared.dirs
}
