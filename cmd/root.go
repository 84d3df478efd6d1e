package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/podtools/podns/internal/k8s"
	"github.com/podtools/podns/internal/logging"
	"github.com/podtools/podns/internal/nsenter"
	"github.com/podtools/podns/internal/pipeline"
	"github.com/podtools/podns/internal/runtime"
)

// Root command flags.
var (
	containerIndex int
	runtimeName    string
	verbose        bool
	joinPIDNS      bool

	kubeconfigPath string
	kubeContext    string
	inCluster      bool
)

// rootCmd represents the base command for podns. Unlike most CLIs it
// does its work directly: there is exactly one operation, so no
// subcommand is needed for the happy path.
var rootCmd = &cobra.Command{
	Use:   "podns <pod-name> [namespace]",
	Short: "Attach a shell to a pod's network namespace",
	Long: `podns resolves a running pod's container to a host process ID and
drops you into an interactive shell inside that process's network
namespace.

The pod is looked up through the Kubernetes API, the container's host
PID through the local container runtime (containerd or Docker,
auto-detected by default), and the final attach is a one-way exec into
nsenter. Root privilege is required.

Examples:

  sudo podns web-1                     # first container, namespace "default"
  sudo podns web-1 staging -c 1        # second container in "staging"
  sudo podns web-1 -r docker --pid-ns  # force docker, also join the PID namespace`,
	Args: cobra.RangeArgs(1, 2),
	// SilenceUsage prevents Cobra from printing the usage message on
	// errors that are handled by the application.
	SilenceUsage: true,
	RunE:         runRoot,
}

// parseRequest validates the positional arguments and flags into an
// immutable pipeline request.
func parseRequest(args []string) (pipeline.Request, error) {
	mode, err := runtime.ParseMode(runtimeName)
	if err != nil {
		return pipeline.Request{}, err
	}

	if containerIndex < 0 {
		return pipeline.Request{}, fmt.Errorf("container index must be non-negative, got %d", containerIndex)
	}

	namespace := k8s.DefaultNamespace
	if len(args) == 2 {
		namespace = args[1]
	}

	return pipeline.Request{
		PodName:        args[0],
		Namespace:      namespace,
		ContainerIndex: containerIndex,
		RuntimeMode:    mode,
	}, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	logger := logging.Setup(verbose)

	req, err := parseRequest(args)
	if err != nil {
		return err
	}

	// Fail fast on privilege before touching the cluster: nsenter
	// cannot work without root no matter what resolution finds.
	if err := nsenter.CheckPrivilege(); err != nil {
		return err
	}

	client, err := k8s.NewClient(&k8s.ClientConfig{
		KubeconfigPath: kubeconfigPath,
		Context:        kubeContext,
		InCluster:      inCluster,
		Logger:         logging.NewSlogAdapter(logger),
	})
	if err != nil {
		return err
	}

	p := &pipeline.Pipeline{
		Pods:     client,
		Detect:   runtime.Detect,
		Attacher: nsenter.New(logger, joinPIDNS),
		Logger:   logger,
	}
	return p.Run(cmd.Context(), req)
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the
// application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
// It initializes and executes the root command, which in turn handles
// subcommands and flags. This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "podns version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra itself usually prints the error. Exiting with a
		// non-zero status code indicates that an error occurred.
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().IntVarP(&containerIndex, "container", "c", 0, "container index within the pod")
	rootCmd.Flags().StringVarP(&runtimeName, "runtime", "r", "auto", "container runtime: containerd, docker, or auto")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level diagnostics on stderr")
	rootCmd.Flags().BoolVar(&joinPIDNS, "pid-ns", false, "also join the container's PID namespace")
	rootCmd.Flags().StringVar(&kubeconfigPath, "kubeconfig", "", "path to the kubeconfig file")
	rootCmd.Flags().StringVar(&kubeContext, "context", "", "kubeconfig context to use")
	rootCmd.Flags().BoolVar(&inCluster, "in-cluster", false, "use in-cluster service account credentials")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
