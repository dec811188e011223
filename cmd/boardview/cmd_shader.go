package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/boardview/internal/shading"
)

func (a *app) shaderCmd() *cobra.Command {
	var spirvOut string
	cmd := &cobra.Command{
		Use:   "shader",
		Short: "Print the surface shader and check that it compiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			words, err := shading.SPIRV()
			if err != nil {
				return err
			}
			if spirvOut == "" {
				fmt.Fprint(cmd.OutOrStdout(), shading.Source())
				a.log.Info("shader: compiled", "spirv_words", len(words))
				return nil
			}
			buf := make([]byte, 4*len(words))
			for i, w := range words {
				binary.LittleEndian.PutUint32(buf[i*4:], w)
			}
			if err := os.WriteFile(spirvOut, buf, 0o644); err != nil {
				return fmt.Errorf("write spirv: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d words)\n", spirvOut, len(words))
			return nil
		},
	}
	cmd.Flags().StringVar(&spirvOut, "spirv", "", "write the compiled SPIR-V module to this file")
	return cmd
}
