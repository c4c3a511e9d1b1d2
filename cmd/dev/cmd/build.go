package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/gophertribe/devtool/build"
	"github.com/spf13/cobra"
)

const (
	binary  = "dist/powermon"
	mainPkg = "./cmd/powermon"
	// image used for cgo cross builds (hid and periph need a C toolchain)
	buildImage = "gophertribe/gobuild:1.25-bookworm"
)

// targets are the boards powermon is deployed on.
var targets = map[string][2]string{
	"nanopi": {"linux", "arm64"},
	"rpi":    {"linux", "arm"},
	"native": {runtime.GOOS, runtime.GOARCH},
}

func BuildCmd() *cobra.Command {
	var (
		version string
		target  string
		goos    string
		goarch  string
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the powermon binary",
		Long: `Build the powermon binary into dist/.

Native builds run go build directly. Other targets are built inside the
gobuild container, which re-runs this tool with the cross-compile settings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if target != "" {
				t, ok := targets[target]
				if !ok {
					return fmt.Errorf("unknown target %q", target)
				}
				goos, goarch = t[0], t[1]
			}
			if goos == runtime.GOOS && goarch == runtime.GOARCH {
				slog.Info("building", "binary", binary, "version", version)
				return build.GoBuild(binary, mainPkg, build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "main",
					EnableCgo:     true,
					Arch:          goarch,
					OS:            goos,
				})
			}
			slog.Info("cross building in container", "os", goos, "arch", goarch, "image", buildImage)
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", goos, goarch), []string{"build", "--version", version, "--os", goos, "--arch", goarch}, build.DockerBuildOpts{
				NoCache: noCache,
				Image:   buildImage,
			})
		},
	}
	cmd.Flags().StringVar(&version, "version", "latest", "version injected into the binary")
	cmd.Flags().StringVar(&target, "target", "", "named target board (nanopi, rpi, native)")
	cmd.Flags().StringVar(&goos, "os", runtime.GOOS, "os to build for")
	cmd.Flags().StringVar(&goarch, "arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "do not use the container build cache")
	return cmd
}
