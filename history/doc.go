// Package history keeps a log of captured and uploaded files in a single
// XML file.
//
// The file is a sequence of <HistoryItem> elements without a root element
// so that new items can be appended without rewriting the file:
//
//	<HistoryItem>
//	    <Filename>a.png</Filename>
//	    <DateTimeUtc>2020-01-01T00:00:00Z</DateTimeUtc>
//	    <URL>http://x/a.png</URL>
//	</HistoryItem>
//
// Fields with empty values are not written and missing fields decode to
// their zero value. Unknown elements are ignored.
//
// # Basic Usage
//
//	s := history.NewStore("History.xml")
//	s.Backup = backup.Policy{Folder: "backups", Weekly: true}
//	s.OnLoadError = func(path string, err error) {
//	    showError(path, err)
//	}
//	s.AppendItem(&history.Item{
//	    Filename: "a.png",
//	    DateTime: time.Now(),
//	    URL:      "http://x/a.png",
//	})
//	items := s.Load()
//
// # Thread Safety
//
// All stores in a process share one mutex, held for the duration of each
// Load, ReadFile and Append (including backups). There is no protection
// against other processes writing the same file.
package history
