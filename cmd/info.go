package cmd

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/urfave/cli"
)

// hostInfo describes the machine renders run on
type hostInfo struct {
	CPU        string
	ClockGHz   float64
	Cores      int
	TotalRAMGB uint64
	Workers    int // Render workers selected when --workers is 0
}

func getHostInfo() (hostInfo, error) {
	cpuInfo, err := cpu.Info()
	if err != nil {
		return hostInfo{}, err
	}
	if len(cpuInfo) == 0 {
		return hostInfo{}, fmt.Errorf("no CPU information available")
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		return hostInfo{}, err
	}

	return hostInfo{
		CPU:        cpuInfo[0].ModelName,
		ClockGHz:   cpuInfo[0].Mhz / 1000,
		Cores:      len(cpuInfo),
		TotalRAMGB: memInfo.Total / (1024 * 1024 * 1024),
		Workers:    runtime.NumCPU(),
	}, nil
}

// HostInfo prints the CPU and memory of the rendering host.
func HostInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	info, err := getHostInfo()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"CPU", "Clock", "Cores", "RAM", "Default workers"})
	table.Append([]string{
		info.CPU,
		fmt.Sprintf("%.2f GHz", info.ClockGHz),
		fmt.Sprintf("%d", info.Cores),
		fmt.Sprintf("%d GB", info.TotalRAMGB),
		fmt.Sprintf("%d", info.Workers),
	})
	table.Render()

	logger.Noticef("host\n%s", buf.String())
	return nil
}
