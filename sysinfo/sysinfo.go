// Package sysinfo produces the host snapshot served by /system/info.
package sysinfo

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

type Info struct {
	Platform        string `json:"platform"`
	PlatformVersion string `json:"platform_version"`
	Architecture    string `json:"architecture"`
	Processor       string `json:"processor"`
	CPUCount        int    `json:"cpu_count"`
	MemoryTotal     uint64 `json:"memory_total"`
	DiskTotal       uint64 `json:"disk_usage"`
	Timestamp       string `json:"timestamp"`
}

func Collect(ctx context.Context) (*Info, error) {
	hostInfo, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get host info: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get memory info: %w", err)
	}

	info := &Info{
		Platform:        hostInfo.Platform,
		PlatformVersion: hostInfo.PlatformVersion,
		Architecture:    hostInfo.KernelArch,
		MemoryTotal:     vm.Total,
		Timestamp:       time.Now().Format(time.RFC3339),
	}

	// Processor details and disk totals are best effort, some
	// environments (containers, exotic archs) cannot provide them.
	if count, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.CPUCount = count
	}
	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 {
		info.Processor = cpus[0].ModelName
	}
	if usage, err := disk.UsageWithContext(ctx, "/"); err == nil {
		info.DiskTotal = usage.Total
	}

	return info, nil
}
