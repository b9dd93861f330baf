// Command demo runs a single-decree Paxos cluster in one process: an
// in-memory transport, a generated or loaded roster, and one proposed
// operation, reporting whether consensus was reached within a fixed wait
// and each learner's chosen sequence. It is the Go counterpart of the reference simulator's main.py
// run_simulation, restructured as a cobra CLI the way
// _examples/sandeepkv93-network-programming/cmd structures its
// subcommands.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/senutpal/quorum/internal/config"
	"github.com/senutpal/quorum/internal/logging"
	"github.com/senutpal/quorum/internal/node"
	"github.com/senutpal/quorum/internal/paxos"
	"github.com/senutpal/quorum/internal/storage"
	"github.com/senutpal/quorum/internal/transport"
	"github.com/senutpal/quorum/internal/transport/failsim"
)

var rootCmd = &cobra.Command{
	Use:   "demo",
	Short: "Single-decree Paxos consensus demo",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var generateConfigPath string
var generateNumProposers, generateNumAcceptors, generateNumLearners int

var generateConfigCmd = &cobra.Command{
	Use:   "generate-config",
	Short: "Write a default roster file",
	RunE: func(cmd *cobra.Command, args []string) error {
		roster := config.Default(generateNumProposers, generateNumAcceptors, generateNumLearners)
		if err := roster.Save(generateConfigPath); err != nil {
			return err
		}
		fmt.Printf("wrote default roster to %s\n", generateConfigPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateConfigCmd)
	generateConfigCmd.Flags().StringVar(&generateConfigPath, "config", "config.json", "path to write the roster file")
	generateConfigCmd.Flags().IntVar(&generateNumProposers, "num-proposers", 3, "number of proposers")
	generateConfigCmd.Flags().IntVar(&generateNumAcceptors, "num-acceptors", 5, "number of acceptors")
	generateConfigCmd.Flags().IntVar(&generateNumLearners, "num-learners", 2, "number of learners")
}

var (
	runConfigPath    string
	runLogLevel      string
	runMessageLoss   float64
	runMinDelayMS    int
	runMaxDelayMS    int
	runFailureProb   float64
	runRecoveryProb  float64
	runOperationText string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one proposal to consensus over an in-memory cluster",
	RunE:  runDemo,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runConfigPath, "config", "config.json", "path to the roster file (generated if absent)")
	runCmd.Flags().StringVar(&runLogLevel, "log-level", "info", "panic|fatal|error|warn|info|debug|trace")
	runCmd.Flags().Float64Var(&runMessageLoss, "message-loss", 0.0, "probability of dropping a message (0.0-1.0)")
	runCmd.Flags().IntVar(&runMinDelayMS, "min-delay-ms", 10, "minimum simulated delivery delay")
	runCmd.Flags().IntVar(&runMaxDelayMS, "max-delay-ms", 100, "maximum simulated delivery delay")
	runCmd.Flags().Float64Var(&runFailureProb, "failure-prob", 0.0, "probability of a node failing on a failure-simulator check")
	runCmd.Flags().Float64Var(&runRecoveryProb, "recovery-prob", 0.2, "probability of a failed node recovering on a check")
	runCmd.Flags().StringVar(&runOperationText, "operation", "", "operation to propose (defaults to a generated value)")
}

func runDemo(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(runLogLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	log, err := logging.New("demo", "orchestrator", logging.Options{Level: level})
	if err != nil {
		return err
	}

	roster, err := loadOrGenerateRoster(log)
	if err != nil {
		return err
	}

	xport := transport.NewMemoryTransport(
		runMessageLoss,
		time.Duration(runMinDelayMS)*time.Millisecond,
		time.Duration(runMaxDelayMS)*time.Millisecond,
		log,
	)
	defer xport.Close()

	cluster, err := buildCluster(roster, xport, log, level)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := cluster.Start(ctx); err != nil {
		return fmt.Errorf("start cluster: %w", err)
	}
	defer cluster.Stop()

	var sim *failsim.Simulator
	if runFailureProb > 0 {
		sim = failsim.New(xport, append(append(roster.ProposerIDs(), roster.AcceptorIDs()...), roster.LearnerIDs()...), runFailureProb, runRecoveryProb, log)
		sim.Start(200 * time.Millisecond)
		defer sim.Stop()
		log.Info("failure simulator started")
	}

	chosen := make(chan struct{})
	for _, learner := range cluster.Learners {
		learner.SetOnChosen(func(ballot paxos.Ballot, op paxos.Operation) {
			log.WithFields(logrus.Fields{"ballot": ballot, "op": op.String()}).Info("CONSENSUS REACHED")
			select {
			case chosen <- struct{}{}:
			default:
			}
		})
	}

	time.Sleep(200 * time.Millisecond) // let handler registration settle before proposing

	proposer, err := cluster.RandomProposer()
	if err != nil {
		return err
	}
	operation := runOperationText
	if operation == "" {
		operation = fmt.Sprintf("test_operation_%d", rand.Int63())
	}
	ballot := proposer.Propose(paxos.Operation(operation))
	log.WithFields(logrus.Fields{"proposer": proposer.ID(), "ballot": ballot, "op": operation}).Info("proposed operation")

	select {
	case <-chosen:
		log.Info("Paxos consensus algorithm successfully demonstrated")
	case <-time.After(10 * time.Second):
		log.Warn("consensus not reached within the time limit; this can happen under simulated loss/failures")
	}

	for id, ops := range cluster.AllChosenOperations() {
		for _, op := range ops {
			log.WithFields(logrus.Fields{"learner": id, "op": op.String()}).Info("learner's chosen sequence")
		}
	}
	return nil
}

func loadOrGenerateRoster(log *logrus.Entry) (*config.Roster, error) {
	if _, err := os.Stat(runConfigPath); os.IsNotExist(err) {
		roster := config.Default(3, 5, 2)
		if err := roster.Save(runConfigPath); err != nil {
			return nil, err
		}
		log.WithField("path", runConfigPath).Info("no roster found, generated a default one")
		return roster, nil
	}
	return config.Load(runConfigPath)
}

func buildCluster(roster *config.Roster, xport transport.Transport, log *logrus.Entry, level logrus.Level) (*node.Cluster, error) {
	acceptorIDs := roster.AcceptorIDs()
	learnerIDs := roster.LearnerIDs()

	var proposers []*node.ProposerNode
	for id := range roster.Proposers {
		ordinal, err := config.Ordinal(id)
		if err != nil {
			return nil, err
		}
		plog, err := logging.New(id, "proposer", logging.Options{Level: level})
		if err != nil {
			return nil, err
		}
		proposers = append(proposers, node.NewProposerNode(id, ordinal, acceptorIDs, xport, plog))
	}

	var acceptors []*node.AcceptorNode
	for id := range roster.Acceptors {
		alog, err := logging.New(id, "acceptor", logging.Options{Level: level})
		if err != nil {
			return nil, err
		}
		acceptors = append(acceptors, node.NewAcceptorNode(id, learnerIDs, storage.NewMemoryStorage(), xport, alog))
	}

	var learners []*node.LearnerNode
	for id := range roster.Learners {
		llog, err := logging.New(id, "learner", logging.Options{Level: level})
		if err != nil {
			return nil, err
		}
		learners = append(learners, node.NewLearnerNode(id, len(acceptorIDs), xport, llog))
	}

	return node.NewCluster(proposers, acceptors, learners, 30*time.Second, 10*time.Second, log), nil
}
