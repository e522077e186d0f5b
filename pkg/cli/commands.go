package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// ArgSpec describes a single argument for a command. Fields are textual
// so prompts and validation rules can be generated from them.
type ArgSpec struct {
	Name        string
	Type        string // "int", "float", "bool", "enum"
	Required    bool
	Default     string
	Description string
}

// CommandSpec defines a single command and its expected arguments.
type CommandSpec struct {
	Name        string
	Args        []ArgSpec
	Usage       string
	Description string
	// NeedsMask marks commands that operate on or require the mask.
	NeedsMask bool
}

// Commands is the authoritative list of operations exposed by the CLI.
// Keep this synchronized with applyCommand in pkg/cli/cli.go.
var Commands = []CommandSpec{
	{
		Name:        "blur",
		Args:        []ArgSpec{{"kernel", "enum", true, "gaussian", "gaussian|box|motion"}, {"sigma", "float", true, "", "blur strength"}},
		Usage:       "blur <kernel> <sigma>",
		Description: "blur the whole image",
	},
	{
		Name:        "selective-blur",
		Args:        []ArgSpec{{"fgSigma", "float", true, "", "foreground sigma"}, {"bgSigma", "float", true, "", "background sigma"}, {"accelerated", "bool", false, "false", "use the accelerated backend"}},
		Usage:       "selective-blur <fgSigma> <bgSigma> [accelerated]",
		Description: "blur foreground and background differently through the mask",
		NeedsMask:   true,
	},
	{
		Name:        "refine-mask",
		Args:        []ArgSpec{{"op", "enum", true, "close", "dilate|erode|open|close|gradient"}, {"kernelSize", "int", true, "5", "structuring element size"}, {"iterations", "int", false, "1", "repeat count"}},
		Usage:       "refine-mask <op> <kernelSize> [iterations]",
		Description: "apply a morphological operator to the mask",
		NeedsMask:   true,
	},
	{
		Name:        "smooth-mask",
		Args:        []ArgSpec{{"sigma", "float", true, "2.0", "gaussian sigma"}, {"featherRadius", "int", true, "3", "feather radius in pixels"}},
		Usage:       "smooth-mask <sigma> <featherRadius>",
		Description: "soften mask edges",
		NeedsMask:   true,
	},
	{
		Name:        "optimize-mask",
		Args:        []ArgSpec{{"minArea", "int", false, "64", "minimum connected-component area"}},
		Usage:       "optimize-mask [minArea]",
		Description: "remove specks and clean the mask boundary",
		NeedsMask:   true,
	},
	{
		Name:        "feather-mask",
		Args:        []ArgSpec{{"inner", "int", true, "4", "inner feather distance"}, {"outer", "int", true, "4", "outer feather distance"}},
		Usage:       "feather-mask <inner> <outer>",
		Description: "build a soft alpha ramp across the mask boundary",
		NeedsMask:   true,
	},
	{
		Name:        "blend",
		Args:        []ArgSpec{{"overlay", "path", true, "", "overlay image path"}, {"strength", "float", false, "1.0", "blend strength 0..1"}},
		Usage:       "blend <overlay> [strength]",
		Description: "composite an overlay through the mask with edge damping",
		NeedsMask:   true,
	},
	{
		Name:        "color-blend",
		Args:        []ArgSpec{{"overlay", "path", true, "", "overlay image path"}, {"space", "enum", false, "rgb", "rgb|hsv|lab"}},
		Usage:       "color-blend <overlay> [space]",
		Description: "composite an overlay in a chosen color space",
		NeedsMask:   true,
	},
	{
		Name:        "gradient-composite",
		Args:        []ArgSpec{{"overlay", "path", true, "", "overlay image path"}},
		Usage:       "gradient-composite <overlay>",
		Description: "composite an overlay weighted by blended image gradients",
		NeedsMask:   true,
	},
}

func commandByName(name string) (CommandSpec, bool) {
	for _, c := range Commands {
		if c.Name == name {
			return c, true
		}
	}
	return CommandSpec{}, false
}

// Tooltip produces a help string for a command from its spec.
func (c CommandSpec) Tooltip() string {
	var sb strings.Builder
	if c.Description != "" {
		sb.WriteString(c.Description)
	} else {
		sb.WriteString("No description")
	}
	if len(c.Args) == 0 {
		sb.WriteString(" (no parameters)")
		return sb.String()
	}
	sb.WriteString("\nparameters:\n")
	for _, a := range c.Args {
		req := "optional"
		if a.Required {
			req = "required"
		}
		sb.WriteString(fmt.Sprintf("- %s (%s, %s)", a.Name, a.Type, req))
		if a.Description != "" {
			sb.WriteString(" " + a.Description)
		}
		if a.Default != "" {
			sb.WriteString(" (default: " + a.Default + ")")
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

// parseBoolLike accepts common truthy/falsy forms.
func parseBoolLike(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "y", "yes", "on":
		return true, nil
	case "0", "f", "false", "n", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean: %q", s)
	}
}

// normalizeArgs validates raw prompt input against the spec, filling in
// defaults for optional arguments left empty. The returned slice is
// positional, one entry per ArgSpec.
func normalizeArgs(c CommandSpec, raw []string) ([]string, error) {
	if len(raw) != len(c.Args) {
		return nil, fmt.Errorf("%s: expected %d arguments, got %d", c.Name, len(c.Args), len(raw))
	}
	out := make([]string, len(raw))
	for i, a := range c.Args {
		v := strings.TrimSpace(raw[i])
		if v == "" {
			if a.Required && a.Default == "" {
				return nil, fmt.Errorf("%s: %s is required", c.Name, a.Name)
			}
			v = a.Default
		}
		switch a.Type {
		case "int":
			if _, err := strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("%s: %s must be an integer: %q", c.Name, a.Name, v)
			}
		case "float":
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return nil, fmt.Errorf("%s: %s must be a number: %q", c.Name, a.Name, v)
			}
		case "bool":
			b, err := parseBoolLike(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %s: %w", c.Name, a.Name, err)
			}
			v = strconv.FormatBool(b)
		case "enum":
			v = strings.ToLower(v)
			ok := false
			for _, opt := range strings.Split(a.Description, "|") {
				if v == strings.TrimSpace(opt) {
					ok = true
					break
				}
			}
			if !ok {
				return nil, fmt.Errorf("%s: %s must be one of %s, got %q", c.Name, a.Name, a.Description, v)
			}
		}
		out[i] = v
	}
	return out, nil
}
