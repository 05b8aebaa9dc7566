package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgslTypeLayout holds the byte size and alignment of a host-shareable WGSL type.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// wgslLayoutMap covers the types this renderer places in uniform buffers.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslLayoutMap = map[string]wgslTypeLayout{
	"f32":         {4, 4},
	"i32":         {4, 4},
	"u32":         {4, 4},
	"vec2<f32>":   {8, 8},
	"vec2f":       {8, 8},
	"vec3<f32>":   {12, 16},
	"vec3f":       {12, 16},
	"vec4<f32>":   {16, 16},
	"vec4f":       {16, 16},
	"mat3x3<f32>": {48, 16},
	"mat3x3f":     {48, 16},
	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},
}

// wgslSampleTypeMap maps the scalar parameter of a sampled texture to its sample type.
var wgslSampleTypeMap = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// fieldRegex matches a struct field: optional attributes, name, colon, type
	fieldRegex = regexp.MustCompile(`^\s*((?:@\w+(?:\([^)]*\))?\s*)*)(\w+)\s*:\s*(.+?)\s*$`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(1) @binding(0) var<uniform> camera: CameraUniform;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)

	// blockCommentRegex matches non-nested /* */ comments
	blockCommentRegex = regexp.MustCompile(`(?s)/\*.*?\*/`)

	// lineCommentRegex matches // comments up to the end of the line
	lineCommentRegex = regexp.MustCompile(`//[^\n]*`)
)

type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

type parsedStruct struct {
	name   string
	fields []parsedField
}

// stripComments removes block and line comments so they cannot match declarations.
func stripComments(source string) string {
	return lineCommentRegex.ReplaceAllString(blockCommentRegex.ReplaceAllString(source, ""), "")
}

// parseEntryPoint returns the name of the first function carrying the stage attribute matched by re.
func parseEntryPoint(source string, re *regexp.Regexp) string {
	if match := re.FindStringSubmatch(source); match != nil {
		return match[1]
	}
	return ""
}

// functionBody returns the brace-delimited body of the named function, or "" if it is not found.
func functionBody(source, name string) string {
	loc := regexp.MustCompile(`\bfn\s+` + regexp.QuoteMeta(name) + `\b`).FindStringIndex(source)
	if loc == nil {
		return ""
	}
	open := strings.IndexByte(source[loc[1]:], '{')
	if open < 0 {
		return ""
	}
	start := loc[1] + open
	depth := 0
	for i := start; i < len(source); i++ {
		switch source[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return source[start : i+1]
			}
		}
	}
	return source[start:]
}

// parseBindGroupLayouts extracts every @group/@binding declaration and turns it into a layout entry.
// An entry is visible to each stage whose body references the variable; a variable referenced by
// no entry point stays visible to both stages.
//
// Parameters:
//   - source: WGSL source with comments stripped
//   - stages: entry point bodies keyed by stage
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layout descriptors keyed by group index
//   - map[int]map[int]string: variable names keyed by group and binding index
func parseBindGroupLayouts(source string, stages map[wgpu.ShaderStage]string) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	structSizes := computeStructLayouts(parseStructBlocks(source))
	groups := make(map[int][]wgpu.BindGroupLayoutEntry)
	varNames := make(map[int]map[int]string)

	for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(source, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		addressSpace := strings.TrimSpace(match[3])
		varName := match[4]
		typeName := strings.TrimSpace(match[5])

		var visibility wgpu.ShaderStage
		usage := regexp.MustCompile(`\b` + regexp.QuoteMeta(varName) + `\b`)
		for stage, body := range stages {
			if usage.MatchString(body) {
				visibility |= stage
			}
		}
		if visibility == wgpu.ShaderStageNone {
			visibility = wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
		}

		entry := classifyResource(uint32(binding), visibility, addressSpace, typeName)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if layout, ok := structSizes[typeName]; ok {
				entry.Buffer.MinBindingSize = layout.size
			} else if layout, ok := wgslLayoutMap[typeName]; ok {
				entry.Buffer.MinBindingSize = layout.size
			}
		}
		groups[group] = append(groups[group], entry)

		if varNames[group] == nil {
			varNames[group] = make(map[int]string)
		}
		varNames[group][binding] = varName
	}

	result := make(map[int]wgpu.BindGroupLayoutDescriptor, len(groups))
	for g, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Binding < entries[j].Binding
		})
		result[g] = wgpu.BindGroupLayoutDescriptor{Entries: entries}
	}
	return result, varNames
}

// classifyResource builds the layout entry for one declaration from its address space or handle type.
func classifyResource(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
	}

	switch {
	case addressSpace == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case strings.HasPrefix(addressSpace, "storage"):
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.Contains(addressSpace, "read_write") {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
	case typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case typeName == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(typeName, "texture_depth_2d"):
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	case strings.HasPrefix(typeName, "texture_2d<"):
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		param := strings.TrimSuffix(strings.TrimPrefix(typeName, "texture_2d<"), ">")
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		if st, ok := wgslSampleTypeMap[strings.TrimSpace(param)]; ok {
			entry.Texture.SampleType = st
		}
	}
	return entry
}

// parseStructBlocks finds every struct declaration and parses its fields.
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))
	for _, match := range matches {
		ps := parsedStruct{name: match[1]}
		for _, line := range strings.Split(match[2], ",") {
			fm := fieldRegex.FindStringSubmatch(line)
			if fm == nil {
				continue
			}
			field := parsedField{
				name:      fm[2],
				typeName:  fm[3],
				location:  -1,
				isBuiltin: strings.Contains(fm[1], "@builtin"),
			}
			if lm := locationRegex.FindStringSubmatch(fm[1]); lm != nil {
				field.location, _ = strconv.Atoi(lm[1])
			}
			ps.fields = append(ps.fields, field)
		}
		structs = append(structs, ps)
	}
	return structs
}

// computeStructLayouts resolves the size of every struct built only from known types, using the
// WGSL rule that each member starts at its alignment and the struct rounds up to its widest member.
func computeStructLayouts(structs []parsedStruct) map[string]wgslTypeLayout {
	result := make(map[string]wgslTypeLayout, len(structs))
	for _, ps := range structs {
		offset, maxAlign := uint64(0), uint64(1)
		resolved := true
		for _, f := range ps.fields {
			layout, ok := wgslLayoutMap[f.typeName]
			if !ok {
				layout, ok = result[f.typeName]
			}
			if !ok || f.isBuiltin {
				resolved = false
				break
			}
			offset = roundUpAlign(layout.align, offset) + layout.size
			maxAlign = max(maxAlign, layout.align)
		}
		if resolved && len(ps.fields) > 0 {
			result[ps.name] = wgslTypeLayout{size: roundUpAlign(maxAlign, offset), align: maxAlign}
		}
	}
	return result
}

// parseVertexInputLocations collects the @location of every field in structs that carry locations
// but no @builtin, which is how vertex and instance inputs are declared.
func parseVertexInputLocations(source string) []uint32 {
	var locations []uint32
	for _, ps := range parseStructBlocks(source) {
		hasBuiltin := false
		var locs []uint32
		for _, f := range ps.fields {
			if f.isBuiltin {
				hasBuiltin = true
				break
			}
			if f.location >= 0 {
				locs = append(locs, uint32(f.location))
			}
		}
		if !hasBuiltin {
			locations = append(locations, locs...)
		}
	}
	sort.Slice(locations, func(i, j int) bool { return locations[i] < locations[j] })
	return locations
}

// roundUpAlign rounds value up to the next multiple of alignment (a power of two).
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}
