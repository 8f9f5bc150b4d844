package capture

import "fmt"

// tpacketHdrLen approximates TPACKET3_HDRLEN plus alignment slack.
const tpacketHdrLen = 64

// ringLayout sizes a TPACKET_V3 ring. Frames are whole pages so that a block
// is always a multiple of both the page and the frame size.
func ringLayout(bufferMB, blockKB, snapLen, pageSize int) (frameSize, blockSize, numBlocks int, err error) {
	if bufferMB <= 0 || snapLen <= 0 || pageSize <= 0 {
		return 0, 0, 0, fmt.Errorf("invalid ring parameters: buffer=%dMB snaplen=%d page=%d", bufferMB, snapLen, pageSize)
	}
	frameSize = roundUp(tpacketHdrLen+snapLen, pageSize)
	blockSize = roundUp(max(blockKB*1024, frameSize), frameSize)
	numBlocks = max(bufferMB*1024*1024/blockSize, 1)
	return frameSize, blockSize, numBlocks, nil
}

func roundUp(n, m int) int {
	return (n + m - 1) / m * m
}
