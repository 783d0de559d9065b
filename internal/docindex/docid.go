package docindex

import "fmt"

func symbolDocID(id uint32) string {
	return fmt.Sprintf("symbol:%d", id)
}

func relationshipDocID(from, to uint32, kind string, line uint32) string {
	return fmt.Sprintf("relationship:%d:%s:%d:%d", from, kind, to, line)
}

func fileInfoDocID(fileID uint32) string {
	return fmt.Sprintf("file_info:%d", fileID)
}

func importDocID(fileID uint32, path string) string {
	return fmt.Sprintf("import:%d:%s", fileID, path)
}

func metadataDocID(key string) string {
	return fmt.Sprintf("metadata:%s", key)
}
