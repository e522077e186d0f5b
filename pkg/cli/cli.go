// Package cli is the interactive terminal host for the processing
// core: it loads images and masks, applies named operations through a
// pipeline context, and saves results.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Fepozopo/blurcore/pkg/blur"
	"github.com/Fepozopo/blurcore/pkg/compose"
	"github.com/Fepozopo/blurcore/pkg/maskproc"
	"github.com/Fepozopo/blurcore/pkg/pipeline"
	"github.com/Fepozopo/blurcore/pkg/pixbuf"
)

// Version mirrors the core version for the update check.
const Version = pipeline.Version

func usage() {
	fmt.Println("Commands available:")
	fmt.Println("  /  - select and apply an operation")
	fmt.Println("  o  - open an image")
	fmt.Println("  k  - open a mask")
	fmt.Println("  s  - save current image")
	fmt.Println("  w  - save current mask")
	fmt.Println("  r  - show performance report")
	fmt.Println("  u  - check for updates")
	fmt.Println("  h  - show this help message")
	fmt.Println("  q  - quit")
}

// session is the mutable state of one interactive run.
type session struct {
	img  *pixbuf.Image
	mask *pixbuf.Image
}

// Run starts the interactive loop. Optional first argument is an image
// path, optional second a mask path.
func Run() {
	// .env is optional, same contract as godotenv.Load
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)

	ctx := pipeline.NewContext(pipeline.OptionsFromEnv(logger))
	defer ctx.Close()

	var st session
	if len(os.Args) >= 2 {
		img, err := LoadImage(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read image %s: %v\n", os.Args[1], err)
			os.Exit(1)
		}
		st.img = img
		fmt.Printf("Opened %s (%dx%d)\n", os.Args[1], img.Width, img.Height)
	}
	if len(os.Args) >= 3 {
		mask, err := LoadMask(os.Args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read mask %s: %v\n", os.Args[2], err)
			os.Exit(1)
		}
		st.mask = mask
		fmt.Printf("Opened mask %s (%dx%d)\n", os.Args[2], mask.Width, mask.Height)
	}

	fmt.Printf("blurcore %s (accelerated: %v)\n", Version, ctx.Accelerated())
	usage()

	for {
		r, err := PromptLine("> ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "read input error: %v\n", err)
			return
		}
		if r == "" {
			continue
		}

		switch r[0] {
		case '/':
			if st.img == nil {
				fmt.Println("No image loaded. Press 'o' to open an image first, or provide an image path as the first argument.")
				continue
			}
			name, err := SelectCommandWithFzf(Commands)
			if err != nil || name == "" {
				// fzf unavailable or returned nothing, fall back to a
				// textual selection list
				name = promptCommandFallback()
				if name == "" {
					continue
				}
			}
			c, ok := commandByName(name)
			if !ok {
				fmt.Printf("unknown command: %s\n", name)
				continue
			}
			if c.NeedsMask && st.mask == nil {
				fmt.Println("This operation needs a mask. Press 'k' to open one.")
				continue
			}

			fmt.Println("\n" + c.Tooltip() + "\n")
			raw := make([]string, len(c.Args))
			for i, a := range c.Args {
				prompt := fmt.Sprintf("%s (%s): ", a.Name, a.Type)
				var val string
				var perr error
				if a.Type == "path" {
					val, perr = PromptLineOrFzf(fmt.Sprintf("%s (path, or '/' for fzf): ", a.Name))
				} else {
					val, perr = PromptLine(prompt)
				}
				if perr != nil {
					fmt.Fprintf(os.Stderr, "input error: %v\n", perr)
					val = ""
				}
				raw[i] = val
			}

			args, err := normalizeArgs(c, raw)
			if err != nil {
				fmt.Fprintf(os.Stderr, "input validation error: %v\n", err)
				continue
			}
			if err := applyCommand(ctx, &st, c.Name, args); err != nil {
				fmt.Fprintf(os.Stderr, "apply command error: %v\n", err)
				continue
			}
			fmt.Printf("Applied %s\n", c.Name)

		case 'o':
			path := promptPath("Enter path to image to open (leave empty to cancel): ")
			if path == "" {
				continue
			}
			img, err := LoadImage(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to read image %s: %v\n", path, err)
				continue
			}
			st.img = img
			fmt.Printf("Opened %s (%dx%d)\n", path, img.Width, img.Height)

		case 'k':
			path := promptPath("Enter path to mask to open (leave empty to cancel): ")
			if path == "" {
				continue
			}
			mask, err := LoadMask(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to read mask %s: %v\n", path, err)
				continue
			}
			st.mask = mask
			fmt.Printf("Opened mask %s (%dx%d)\n", path, mask.Width, mask.Height)

		case 's':
			if st.img == nil {
				fmt.Println("no image loaded")
				continue
			}
			out, _ := PromptLine("Enter output filename: ")
			if out == "" {
				fmt.Println("no filename provided")
				continue
			}
			if err := SaveImage(out, st.img); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write image: %v\n", err)
				continue
			}
			fmt.Printf("Saved to %s\n", out)

		case 'w':
			if st.mask == nil {
				fmt.Println("no mask loaded")
				continue
			}
			out, _ := PromptLine("Enter output filename: ")
			if out == "" {
				fmt.Println("no filename provided")
				continue
			}
			if err := SaveImage(out, st.mask); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write mask: %v\n", err)
				continue
			}
			fmt.Printf("Saved to %s\n", out)

		case 'r':
			fmt.Println(ctx.Report())

		case 'u':
			if err := CheckForUpdates(); err != nil {
				fmt.Fprintf(os.Stderr, "update check error: %v\n", err)
			}

		case 'h':
			usage()

		case 'q':
			fmt.Println("Exiting...")
			return

		default:
			// ignore other keys
		}
	}
}

func promptPath(prompt string) string {
	selected, selErr := SelectFileWithFzf(".")
	if selErr == nil && selected != "" {
		return selected
	}
	path, _ := PromptLine(prompt)
	return path
}

func promptCommandFallback() string {
	fmt.Println("Command selection (fallback):")
	for i, c := range Commands {
		fmt.Printf("  %d) %s - %s\n", i+1, c.Name, c.Description)
	}
	selection, _ := PromptLine("Enter number or command name (leave empty to cancel): ")
	if selection == "" {
		fmt.Println("selection cancelled")
		return ""
	}
	if idx, err := strconv.Atoi(selection); err == nil {
		if idx < 1 || idx > len(Commands) {
			fmt.Println("invalid selection")
			return ""
		}
		return Commands[idx-1].Name
	}
	sel := strings.ToLower(selection)
	for _, c := range Commands {
		if strings.ToLower(c.Name) == sel {
			return c.Name
		}
	}
	var matches []string
	for _, c := range Commands {
		if strings.HasPrefix(strings.ToLower(c.Name), sel) {
			matches = append(matches, c.Name)
		}
	}
	if len(matches) == 1 {
		return matches[0]
	}
	if len(matches) > 1 {
		fmt.Println("ambiguous selection, candidates:")
		for _, m := range matches {
			fmt.Println("  " + m)
		}
		return ""
	}
	fmt.Printf("unknown command: %s\n", selection)
	return ""
}

// applyCommand dispatches a normalized command to the pipeline. Image
// operations replace the session image; mask operations replace the
// session mask.
func applyCommand(ctx *pipeline.Context, st *session, name string, args []string) error {
	switch name {
	case "blur":
		sigma, _ := strconv.ParseFloat(args[1], 64)
		out, err := ctx.Blur(st.img, blur.Params{Kernel: parseKernel(args[0]), Sigma: sigma})
		if err != nil {
			return err
		}
		st.img = out

	case "selective-blur":
		fg, _ := strconv.ParseFloat(args[0], 64)
		bg, _ := strconv.ParseFloat(args[1], 64)
		accel, _ := strconv.ParseBool(args[2])
		out, err := ctx.SelectiveBlur(st.img, st.mask, fg, bg, accel)
		if err != nil {
			return err
		}
		st.img = out

	case "refine-mask":
		size, _ := strconv.Atoi(args[1])
		iters, _ := strconv.Atoi(args[2])
		out, err := ctx.RefineMask(st.mask, parseMorphOp(args[0]), size, iters)
		if err != nil {
			return err
		}
		st.mask = out

	case "smooth-mask":
		sigma, _ := strconv.ParseFloat(args[0], 64)
		radius, _ := strconv.Atoi(args[1])
		out, err := ctx.SmoothMaskEdges(st.mask, sigma, radius)
		if err != nil {
			return err
		}
		st.mask = out

	case "optimize-mask":
		minArea, _ := strconv.Atoi(args[0])
		out, err := ctx.OptimizeMask(st.mask, minArea)
		if err != nil {
			return err
		}
		st.mask = out

	case "feather-mask":
		inner, _ := strconv.Atoi(args[0])
		outer, _ := strconv.Atoi(args[1])
		out, err := ctx.FeatherMask(st.mask, inner, outer)
		if err != nil {
			return err
		}
		st.mask = out

	case "blend":
		overlay, err := LoadImage(args[0])
		if err != nil {
			return err
		}
		strength, _ := strconv.ParseFloat(args[1], 64)
		out, err := ctx.BlendLayers(st.img, overlay, st.mask, strength)
		if err != nil {
			return err
		}
		st.img = out

	case "color-blend":
		overlay, err := LoadImage(args[0])
		if err != nil {
			return err
		}
		out, err := ctx.ColorBlend(st.img, overlay, st.mask, parseColorSpace(args[1]))
		if err != nil {
			return err
		}
		st.img = out

	case "gradient-composite":
		overlay, err := LoadImage(args[0])
		if err != nil {
			return err
		}
		out, err := ctx.GradientComposite(st.img, overlay, st.mask)
		if err != nil {
			return err
		}
		st.img = out

	default:
		return fmt.Errorf("unknown command: %s", name)
	}
	return nil
}

func parseKernel(s string) blur.KernelType {
	switch s {
	case "box":
		return blur.KernelBox
	case "motion":
		return blur.KernelMotion
	default:
		return blur.KernelGaussian
	}
}

func parseMorphOp(s string) maskproc.Op {
	switch s {
	case "dilate":
		return maskproc.Dilate
	case "erode":
		return maskproc.Erode
	case "open":
		return maskproc.Open
	case "gradient":
		return maskproc.Gradient
	default:
		return maskproc.Close
	}
}

func parseColorSpace(s string) compose.ColorSpace {
	switch s {
	case "hsv":
		return compose.SpaceHSV
	case "lab":
		return compose.SpaceLAB
	default:
		return compose.SpaceRGB
	}
}
