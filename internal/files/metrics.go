package files

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filedepot_upload_batches_total",
		Help: "Upload batches by result.",
	}, []string{"result"})

	uploadedFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filedepot_uploaded_files_total",
		Help: "Files stored by successful upload batches.",
	})

	uploadedBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filedepot_uploaded_bytes_total",
		Help: "Bytes stored by successful upload batches.",
	})

	indexOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filedepot_index_operations_total",
		Help: "Index calls by result.",
	}, []string{"result"})

	retrievalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filedepot_retrievals_total",
		Help: "Details and download calls by operation and result.",
	}, []string{"operation", "result"})

	reconcileEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filedepot_reconcile_entries_total",
		Help: "Pending journal entries handled by reconciliation, by outcome.",
	}, []string{"outcome"})
)
