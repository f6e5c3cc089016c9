package parser

import (
	"fmt"
	"testing"
)

// BenchmarkParse measures single-line parsing throughput.
func BenchmarkParse(b *testing.B) {
	line := "03-21 10:23:45.678  1234  5678 D ActivityManager: Start proc 1234:com.example/u0a123"

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Parse(line)
	}
}

// BenchmarkClassify measures level classification alone.
func BenchmarkClassify(b *testing.B) {
	line := "03-21 10:23:45.678  1234  5678 V AudioFlinger: write blocked for 100 msecs"

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Classify(line)
	}
}

// BenchmarkParseThroughput measures sustained lines/sec over a diverse batch.
func BenchmarkParseThroughput(b *testing.B) {
	lines := make([]string, 1000)
	for i := range lines {
		switch i % 4 {
		case 0:
			lines[i] = fmt.Sprintf("03-21 10:23:45.%03d  1234  5678 I ConnectivityService: network %d validated", i%1000, i)
		case 1:
			lines[i] = fmt.Sprintf("03-21 10:23:45.%03d  1234  5678 E libc: Fatal signal in tid %d", i%1000, i)
		case 2:
			lines[i] = fmt.Sprintf("03-21 10:23:45.%03d   987  5678 W Choreographer: Skipped %d frames", i%1000, i)
		case 3:
			lines[i] = "--------- beginning of system"
		}
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Parse(lines[i%1000])
	}
}
