package main

import (
	"fmt"
	"os"

	"github.com/multiformats/go-multiaddr"
	"github.com/spf13/cobra"

	"github.com/DeBrosOfficial/branchnode/pkg/config"
	"github.com/DeBrosOfficial/branchnode/pkg/p2p"
)

type options struct {
	keystorePath string
	protocol     string
	ip           string
	port         uint16
}

// bootNodeAddress loads or creates the network identity of protocol in the
// keystore and returns the boot node address peers dial it at.
func bootNodeAddress(o options) (string, error) {
	_, id, err := p2p.LoadOrCreateIdentity(p2p.IdentityFile(o.keystorePath, o.protocol))
	if err != nil {
		return "", err
	}

	ma, err := multiaddr.NewMultiaddr(fmt.Sprintf("/ip4/%s/tcp/%d/p2p/%s", o.ip, o.port, id))
	if err != nil {
		return "", fmt.Errorf("invalid address: %w", err)
	}
	addr := ma.String()
	if err := config.ValidateBootNode(addr); err != nil {
		return "", err
	}
	return addr, nil
}

func newCommand() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:          "identity",
		Short:        "Print the boot node address of a chain network identity, creating the key if needed",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := bootNodeAddress(o)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.keystorePath, "keystore-path", "", "Keystore directory of the chain")
	f.StringVar(&o.protocol, "protocol", "", "Network protocol id, e.g. yee-shard1")
	f.StringVar(&o.ip, "ip", "127.0.0.1", "Public IPv4 address of the node")
	f.Uint16Var(&o.port, "port", 30333, "P2P port of the node")
	cmd.MarkFlagRequired("keystore-path")
	cmd.MarkFlagRequired("protocol")
	return cmd
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
